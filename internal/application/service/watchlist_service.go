package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"cwatch/internal/domain/model"
)

// WatchlistStore 自选列表的唯一数据源
// 每次变更都在同一临界区内同步落盘，然后通知订阅者
type WatchlistStore struct {
	mu      sync.Mutex
	coll    model.Collection
	persist *Persistence
	lastErr error
	newID   func() string

	subMu sync.Mutex
	subs  map[int]chan struct{}
	next  int
}

// NewWatchlistStore 从持久化层加载已有数据
func NewWatchlistStore(ctx context.Context, persist *Persistence) *WatchlistStore {
	s := &WatchlistStore{
		persist: persist,
		newID:   uuid.NewString,
		subs:    make(map[int]chan struct{}),
	}
	s.coll = persist.Load(ctx)
	log.Info().
		Int("watchlists", len(s.coll.Lists)).
		Str("selected", s.coll.Selected).
		Msg("watchlists loaded")
	return s
}

// Create 新建列表并选中，返回新 ID
func (s *WatchlistStore) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.ErrEmptyName
	}
	id := s.newID()

	s.mu.Lock()
	s.coll.Append(model.Watchlist{ID: id, Name: name, Symbols: []string{}})
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.broadcast()
	return id, nil
}

// Delete 删除列表；删除选中项时在同一操作内重新分配选中
func (s *WatchlistStore) Delete(ctx context.Context, id string) model.Outcome {
	return s.mutate(ctx, func(c *model.Collection) model.Outcome {
		return c.Remove(id)
	})
}

// AddSymbol 幂等：已存在时返回 OutcomeAlreadyPresent，不做任何修改
func (s *WatchlistStore) AddSymbol(ctx context.Context, id, symbol string) model.Outcome {
	return s.mutate(ctx, func(c *model.Collection) model.Outcome {
		return c.AddSymbol(id, symbol)
	})
}

// AddToSelected adds symbol to the currently selected list.
func (s *WatchlistStore) AddToSelected(ctx context.Context, symbol string) model.Outcome {
	return s.mutate(ctx, func(c *model.Collection) model.Outcome {
		if c.Selected == "" {
			return model.OutcomeNoSelection
		}
		return c.AddSymbol(c.Selected, symbol)
	})
}

func (s *WatchlistStore) RemoveSymbol(ctx context.Context, id, symbol string) model.Outcome {
	return s.mutate(ctx, func(c *model.Collection) model.Outcome {
		return c.RemoveSymbol(id, symbol)
	})
}

// Select 空 id 取消选中
func (s *WatchlistStore) Select(ctx context.Context, id string) model.Outcome {
	return s.mutate(ctx, func(c *model.Collection) model.Outcome {
		return c.Select(id)
	})
}

func (s *WatchlistStore) mutate(ctx context.Context, fn func(c *model.Collection) model.Outcome) model.Outcome {
	s.mu.Lock()
	out := fn(&s.coll)
	if out == model.OutcomeOK {
		s.saveLocked(ctx)
	}
	s.mu.Unlock()

	if out == model.OutcomeOK {
		s.broadcast()
	}
	return out
}

func (s *WatchlistStore) saveLocked(ctx context.Context) {
	s.lastErr = s.persist.Save(ctx, s.coll)
	if s.lastErr != nil {
		log.Error().Err(s.lastErr).Msg("persist watchlists failed")
	}
}

// LastPersistError 最近一次落盘的错误，成功后清空
func (s *WatchlistStore) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot 返回集合的深拷贝
func (s *WatchlistStore) Snapshot() model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Clone()
}

func (s *WatchlistStore) Get(id string) (model.Watchlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Get(id)
}

// Selected 当前选中的列表
func (s *WatchlistStore) Selected() (model.Watchlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coll.Selected == "" {
		return model.Watchlist{}, false
	}
	return s.coll.Get(s.coll.Selected)
}

// Symbols 所有列表币种的并集，作为行情订阅参数
func (s *WatchlistStore) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Symbols()
}

// Watch 订阅变更通知。通道容量为 1，多次变更合并为一次
func (s *WatchlistStore) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *WatchlistStore) broadcast() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
