package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

// DefaultStorageKey 自选列表在键值存储中的固定 key
const DefaultStorageKey = "crypto_watchlists"

// Persistence 把自选列表集合序列化到 BlobStore
// 主 key 存 JSON 数组；选中项单独存在 <key>:selected
type Persistence struct {
	store port.BlobStore
	key   string
	now   func() time.Time
}

func NewPersistence(store port.BlobStore, key string) *Persistence {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultStorageKey
	}
	return &Persistence{store: store, key: key, now: time.Now}
}

func (p *Persistence) Key() string { return p.key }

func (p *Persistence) selectedKey() string { return p.key + ":selected" }

// Save 写入完整集合，失败时返回错误，由调用方决定如何提示
func (p *Persistence) Save(ctx context.Context, c model.Collection) error {
	lists := c.Lists
	if lists == nil {
		lists = []model.Watchlist{}
	}
	b, err := json.Marshal(lists)
	if err != nil {
		return fmt.Errorf("marshal watchlists: %w", err)
	}
	if err := p.store.Put(ctx, p.key, b); err != nil {
		return fmt.Errorf("put %s: %w", p.key, err)
	}
	if err := p.store.Put(ctx, p.selectedKey(), []byte(c.Selected)); err != nil {
		return fmt.Errorf("put %s: %w", p.selectedKey(), err)
	}
	return nil
}

// Load 读取集合；不存在或无法解析时返回空集合
// 无法解析的原始数据会先备份到 <key>:corrupt:<unix_ms>，避免下一次 Save 覆盖用户数据
func (p *Persistence) Load(ctx context.Context) model.Collection {
	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		log.Error().Err(err).Str("key", p.key).Msg("load watchlists failed")
		return model.Collection{}
	}
	if !ok || len(raw) == 0 {
		return model.Collection{}
	}

	var lists []model.Watchlist
	if err := json.Unmarshal(raw, &lists); err != nil {
		p.quarantine(ctx, raw, err)
		return model.Collection{}
	}

	out := model.Collection{Lists: make([]model.Watchlist, 0, len(lists))}
	seen := make(map[string]struct{}, len(lists))
	for _, w := range lists {
		if w.ID == "" {
			log.Warn().Str("name", w.Name).Msg("skip stored watchlist without id")
			continue
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}
		if w.Symbols == nil {
			w.Symbols = []string{}
		}
		out.Lists = append(out.Lists, w)
	}

	if sel, ok, err := p.store.Get(ctx, p.selectedKey()); err == nil && ok {
		out.Selected = string(sel)
	}
	out.Repair()
	return out
}

func (p *Persistence) quarantine(ctx context.Context, raw []byte, cause error) {
	backup := fmt.Sprintf("%s:corrupt:%d", p.key, p.now().UnixMilli())
	if err := p.store.Put(ctx, backup, raw); err != nil {
		log.Error().Err(err).Str("key", p.key).Str("backup", backup).Msg("backup of unreadable watchlists failed")
	}
	log.Warn().Err(cause).Str("key", p.key).Str("backup", backup).Msg("stored watchlists unreadable, starting empty")
}
