package service

import (
	"context"
	"errors"
	"sync"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

type mockBlobStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	puts    int
	failPut bool
	failGet bool
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{data: make(map[string][]byte)}
}

func (m *mockBlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("get failed")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockBlobStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("quota exceeded")
	}
	m.puts++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockBlobStore) Close() error { return nil }

type mockTickerSource struct {
	tickers []port.Ticker
	err     error
	calls   int
	block   chan struct{}
}

func (m *mockTickerSource) Tickers(ctx context.Context) ([]port.Ticker, error) {
	m.calls++
	if m.block != nil {
		<-m.block
	}
	return m.tickers, m.err
}

type mockNotifier struct {
	mu   sync.Mutex
	msgs []string
	sevs []port.Severity
}

func (m *mockNotifier) Notify(sev port.Severity, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sevs = append(m.sevs, sev)
	m.msgs = append(m.msgs, msg)
}

type mockSubscription struct {
	done   chan struct{}
	closed bool
}

func (m *mockSubscription) Close() error {
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
func (m *mockSubscription) Done() <-chan struct{} { return m.done }
func (m *mockSubscription) Err() error            { return nil }

type mockFeed struct {
	coins [][]string
}

func (m *mockFeed) Name() string { return "MOCK" }

func (m *mockFeed) Subscribe(ctx context.Context, coins []string, onQuote func(model.PriceQuote)) (port.Subscription, error) {
	m.coins = append(m.coins, coins)
	return &mockSubscription{done: make(chan struct{})}, nil
}
