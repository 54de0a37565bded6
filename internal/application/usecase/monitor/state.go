package monitor

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"cwatch/internal/domain/model"
)

type Dir int

const (
	DirSame Dir = 0
	DirUp   Dir = +1
	DirDown Dir = -1
)

type pxState struct {
	quote model.PriceQuote
	dir   Dir
}

// PriceCache 行情缓存，仅用于显示，不落盘
// 同一币种后写覆盖前写，没有序号
type PriceCache struct {
	mu     sync.Mutex
	quotes map[string]*pxState
}

func NewPriceCache() *PriceCache {
	return &PriceCache{quotes: make(map[string]*pxState)}
}

// Apply 写入一条行情，返回显示是否需要刷新
func (c *PriceCache) Apply(q model.PriceQuote) bool {
	sym := strings.ToUpper(strings.TrimSpace(q.Symbol))
	if sym == "" || strings.TrimSpace(q.Price) == "" {
		return false
	}
	q.Symbol = sym

	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.quotes[sym]
	if ps == nil {
		c.quotes[sym] = &pxState{quote: q}
		return true
	}
	if ps.quote == q {
		return false
	}

	ps.dir = direction(ps.quote.Price, q.Price)
	ps.quote = q
	return true
}

func direction(prev, next string) Dir {
	p, err1 := decimal.NewFromString(prev)
	n, err2 := decimal.NewFromString(next)
	if err1 != nil || err2 != nil {
		return DirSame
	}
	switch n.Cmp(p) {
	case 1:
		return DirUp
	case -1:
		return DirDown
	default:
		return DirSame
	}
}

// Get 返回最新行情
func (c *PriceCache) Get(symbol string) (model.PriceQuote, Dir, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps := c.quotes[strings.ToUpper(strings.TrimSpace(symbol))]
	if ps == nil {
		return model.PriceQuote{}, DirSame, false
	}
	return ps.quote, ps.dir, true
}

// Snapshot copies all cached quotes.
func (c *PriceCache) Snapshot() map[string]model.PriceQuote {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]model.PriceQuote, len(c.quotes))
	for k, v := range c.quotes {
		out[k] = v.quote
	}
	return out
}

// Len 缓存中的币种数量
func (c *PriceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.quotes)
}
