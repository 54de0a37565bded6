package model

import (
	"errors"
	"strings"
)

// ErrEmptyName 创建自选列表时名称为空
var ErrEmptyName = errors.New("watchlist name is empty")

// Outcome 自选列表操作结果（非错误的领域校验结果）
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeAlreadyPresent
	OutcomeNoSuchList
	OutcomeNoSelection
	OutcomeInvalidSymbol
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAlreadyPresent:
		return "already_present"
	case OutcomeNoSuchList:
		return "no_such_list"
	case OutcomeNoSelection:
		return "no_selection"
	case OutcomeInvalidSymbol:
		return "invalid_symbol"
	default:
		return "unknown"
	}
}

// Watchlist 用户自定义的币种列表
// coins 字段名沿用历史存储格式
type Watchlist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Symbols []string `json:"coins"`
}

// Has reports whether symbol is already in the list.
func (w *Watchlist) Has(symbol string) bool {
	for _, s := range w.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

func (w Watchlist) clone() Watchlist {
	syms := make([]string, len(w.Symbols))
	copy(syms, w.Symbols)
	w.Symbols = syms
	return w
}

// Collection 自选列表集合，保持插入顺序
// Selected 为空字符串表示未选中；非空时必须指向 Lists 中存在的 ID
type Collection struct {
	Lists    []Watchlist
	Selected string
}

// NormalizeSymbol 统一币种格式: " btc " -> "BTC"
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (c *Collection) index(id string) int {
	for i := range c.Lists {
		if c.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

// Get 返回指定 ID 的列表副本
func (c *Collection) Get(id string) (Watchlist, bool) {
	i := c.index(id)
	if i < 0 {
		return Watchlist{}, false
	}
	return c.Lists[i].clone(), true
}

// Append adds w at the end and selects it.
func (c *Collection) Append(w Watchlist) {
	if w.Symbols == nil {
		w.Symbols = []string{}
	}
	c.Lists = append(c.Lists, w)
	c.Selected = w.ID
}

// Remove 删除列表；若删除的是当前选中项，回退到剩余的第一个列表或空
func (c *Collection) Remove(id string) Outcome {
	i := c.index(id)
	if i < 0 {
		return OutcomeNoSuchList
	}
	c.Lists = append(c.Lists[:i], c.Lists[i+1:]...)
	if c.Selected == id {
		c.Selected = ""
		if len(c.Lists) > 0 {
			c.Selected = c.Lists[0].ID
		}
	}
	return OutcomeOK
}

func (c *Collection) AddSymbol(id, symbol string) Outcome {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return OutcomeInvalidSymbol
	}
	i := c.index(id)
	if i < 0 {
		return OutcomeNoSuchList
	}
	w := &c.Lists[i]
	if w.Has(sym) {
		return OutcomeAlreadyPresent
	}
	w.Symbols = append(w.Symbols, sym)
	return OutcomeOK
}

// RemoveSymbol removing a symbol that is not in the list is still OutcomeOK.
func (c *Collection) RemoveSymbol(id, symbol string) Outcome {
	sym := NormalizeSymbol(symbol)
	i := c.index(id)
	if i < 0 {
		return OutcomeNoSuchList
	}
	w := &c.Lists[i]
	out := w.Symbols[:0]
	for _, s := range w.Symbols {
		if s != sym {
			out = append(out, s)
		}
	}
	w.Symbols = out
	return OutcomeOK
}

// Select 切换选中列表，空 id 表示取消选中
func (c *Collection) Select(id string) Outcome {
	if id == "" {
		c.Selected = ""
		return OutcomeOK
	}
	if c.index(id) < 0 {
		return OutcomeNoSuchList
	}
	c.Selected = id
	return OutcomeOK
}

// Repair falls back to the first list when the selection is empty or dangling.
func (c *Collection) Repair() {
	if c.Selected != "" && c.index(c.Selected) >= 0 {
		return
	}
	c.Selected = ""
	if len(c.Lists) > 0 {
		c.Selected = c.Lists[0].ID
	}
}

// Symbols 所有列表中币种的并集，按首次出现顺序去重
func (c *Collection) Symbols() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, w := range c.Lists {
		for _, s := range w.Symbols {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// Clone 深拷贝
func (c Collection) Clone() Collection {
	lists := make([]Watchlist, len(c.Lists))
	for i, w := range c.Lists {
		lists[i] = w.clone()
	}
	return Collection{Lists: lists, Selected: c.Selected}
}
