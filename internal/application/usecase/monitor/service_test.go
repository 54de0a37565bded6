package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

type fakeStore struct {
	mu   sync.Mutex
	w    model.Watchlist
	syms []string
	ch   chan struct{}
}

func newFakeStore(syms ...string) *fakeStore {
	return &fakeStore{
		w:    model.Watchlist{ID: "a", Name: "Majors", Symbols: syms},
		syms: syms,
		ch:   make(chan struct{}, 1),
	}
}

func (f *fakeStore) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.syms...)
}

func (f *fakeStore) Selected() (model.Watchlist, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w, true
}

func (f *fakeStore) Watch() (<-chan struct{}, func()) { return f.ch, func() {} }

func (f *fakeStore) set(syms ...string) {
	f.mu.Lock()
	f.syms = syms
	f.w.Symbols = syms
	f.mu.Unlock()
	f.ch <- struct{}{}
}

type fakeSub struct {
	mu     sync.Mutex
	done   chan struct{}
	closed bool
	err    error
}

func (s *fakeSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}
func (s *fakeSub) Done() <-chan struct{} { return s.done }
func (s *fakeSub) Err() error            { return s.err }
func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeMarket struct {
	mu       sync.Mutex
	subs     []*fakeSub
	coins    [][]string
	handlers []func(model.PriceQuote)
}

func (m *fakeMarket) FeedName() string { return "FAKE" }

func (m *fakeMarket) Subscribe(ctx context.Context, coins []string, onQuote func(model.PriceQuote)) (port.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &fakeSub{done: make(chan struct{})}
	m.subs = append(m.subs, s)
	m.coins = append(m.coins, coins)
	m.handlers = append(m.handlers, onQuote)
	return s, nil
}

func (m *fakeMarket) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *fakeMarket) last() (*fakeSub, func(model.PriceQuote)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[len(m.subs)-1], m.handlers[len(m.handlers)-1]
}

type fakeSink struct {
	mu   sync.Mutex
	live []string
}

func (s *fakeSink) WriteLive(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append(s.live, line)
	return nil
}
func (s *fakeSink) WriteSnapshot(ts time.Time, line string) error { return nil }
func (s *fakeSink) NewLine() error                                 { return nil }
func (s *fakeSink) lastLive() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.live) == 0 {
		return ""
	}
	return s.live[len(s.live)-1]
}

type fakePublisher struct {
	mu     sync.Mutex
	quotes []model.PriceQuote
}

func (p *fakePublisher) PublishQuote(ctx context.Context, source string, q model.PriceQuote, ts int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes = append(p.quotes, q)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.quotes)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func startService(t *testing.T, deps ServiceDeps) (*Service, func()) {
	t.Helper()
	svc := NewService(deps)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()
	return svc, func() {
		cancel()
		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected Run error: %v", err)
		}
	}
}

func TestServiceAppliesQuotes(t *testing.T) {
	store := newFakeStore("BTC", "ETH")
	market := &fakeMarket{}
	sink := &fakeSink{}
	pub := &fakePublisher{}
	svc, stop := startService(t, ServiceDeps{Store: store, Market: market, Sink: sink, Publisher: pub, NoColor: true})
	defer stop()

	waitFor(t, "subscription", func() bool { return market.count() == 1 })
	_, onQuote := market.last()
	onQuote(model.PriceQuote{Symbol: "BTC", Price: "50000.00", PriceChange: "10", PriceChangePercent: "0.02"})

	waitFor(t, "cache update", func() bool { _, _, ok := svc.Cache().Get("BTC"); return ok })
	waitFor(t, "render", func() bool { return strings.Contains(sink.lastLive(), "BTC $50000.00 0.02%") })
	if !strings.Contains(sink.lastLive(), "ETH Loading...") {
		t.Errorf("expected ETH placeholder, got %q", sink.lastLive())
	}
	waitFor(t, "publish", func() bool { return pub.count() == 1 })
}

func TestServiceResubscribesOnSymbolChange(t *testing.T) {
	store := newFakeStore("BTC")
	market := &fakeMarket{}
	_, stop := startService(t, ServiceDeps{Store: store, Market: market, Sink: &fakeSink{}, NoColor: true})
	defer stop()

	waitFor(t, "first subscription", func() bool { return market.count() == 1 })
	first, _ := market.last()

	store.set("BTC", "SOL")
	waitFor(t, "second subscription", func() bool { return market.count() == 2 })
	if !first.isClosed() {
		t.Errorf("old subscription must be closed before re-subscribing")
	}

	// 集合未变化（仅顺序不同）不重新订阅
	store.set("SOL", "BTC")
	time.Sleep(50 * time.Millisecond)
	if market.count() != 2 {
		t.Errorf("unexpected re-subscription for identical symbol set")
	}

	// 清空后关闭连接且不再订阅
	second, _ := market.last()
	store.set()
	waitFor(t, "close on empty set", second.isClosed)
	if market.count() != 2 {
		t.Errorf("empty symbol set must not subscribe")
	}
}

func TestServiceDoesNotReconnectAfterDrop(t *testing.T) {
	store := newFakeStore("BTC")
	market := &fakeMarket{}
	_, stop := startService(t, ServiceDeps{Store: store, Market: market, Sink: &fakeSink{}, NoColor: true})
	defer stop()

	waitFor(t, "subscription", func() bool { return market.count() == 1 })
	sub, _ := market.last()
	sub.err = errors.New("connection reset")
	sub.Close()

	time.Sleep(50 * time.Millisecond)
	if market.count() != 1 {
		t.Errorf("dropped stream must not reconnect on its own")
	}

	store.set("BTC", "ETH")
	waitFor(t, "subscription after symbol change", func() bool { return market.count() == 2 })
}

func TestPriceCacheLastWriteWins(t *testing.T) {
	c := NewPriceCache()
	if !c.Apply(model.PriceQuote{Symbol: "btc", Price: "1.0", PriceChange: "0", PriceChangePercent: "0"}) {
		t.Fatalf("first apply should change")
	}
	if c.Apply(model.PriceQuote{Symbol: "BTC", Price: "1.0", PriceChange: "0", PriceChangePercent: "0"}) {
		t.Errorf("identical quote should not change")
	}
	c.Apply(model.PriceQuote{Symbol: "BTC", Price: "0.5", PriceChange: "-0.5", PriceChangePercent: "-50"})
	q, dir, ok := c.Get("BTC")
	if !ok || q.Price != "0.5" || dir != DirDown {
		t.Errorf("unexpected state %+v %v %v", q, dir, ok)
	}
}

func TestPriceCacheIgnoresMissingPrice(t *testing.T) {
	c := NewPriceCache()
	c.Apply(model.PriceQuote{Symbol: "BTC", Price: "1.0", PriceChange: "0", PriceChangePercent: "0"})
	if c.Apply(model.PriceQuote{Symbol: "BTC"}) {
		t.Errorf("quote without price must be ignored")
	}
	q, _, _ := c.Get("BTC")
	if q.Price != "1.0" {
		t.Errorf("cache altered by malformed quote: %+v", q)
	}
}

func TestFormatterRender(t *testing.T) {
	f := NewFormatter(true)
	c := NewPriceCache()
	c.Apply(model.PriceQuote{Symbol: "BTC", Price: "50000.123", PriceChange: "1", PriceChangePercent: "-1.234"})

	line := f.Render(model.Watchlist{Name: "Majors", Symbols: []string{"BTC"}}, true, c, RenderSnapshot)
	want := "[CWATCH] Majors | BTC $50000.12 -1.23%"
	if line != want {
		t.Errorf("want %q, got %q", want, line)
	}

	if got := f.Render(model.Watchlist{}, false, c, RenderSnapshot); !strings.Contains(got, "No watchlists yet") {
		t.Errorf("unexpected empty render %q", got)
	}
	if got := f.RenderResults(nil); got != "No results found\n" {
		t.Errorf("unexpected empty results %q", got)
	}
}
