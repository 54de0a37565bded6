package binance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
	dsvc "cwatch/internal/domain/service"
	"cwatch/internal/infrastructure/exchange"
)

// ExchangeName 交易所名称
const ExchangeName = "BINANCE"

// TickerFeed Binance 现货 24h ticker 推送
// 每次 Subscribe 建立一条新连接，不支持在已有连接上增删币种，也不自动重连
type TickerFeed struct {
	wsURL     string // e.g. wss://stream.binance.com:9443
	converter dsvc.SymbolConverter
	nextID    atomic.Int64
}

func NewTickerFeed(wsURL string, converter dsvc.SymbolConverter) *TickerFeed {
	return &TickerFeed{
		wsURL:     strings.TrimSpace(wsURL),
		converter: converter,
	}
}

func (f *TickerFeed) Name() string { return ExchangeName }

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// Subscribe 连接后立即发送一条 SUBSCRIBE 消息，每个币种一个 <coin><quote>@ticker 频道
func (f *TickerFeed) Subscribe(ctx context.Context, coins []string, onQuote func(model.PriceQuote)) (port.Subscription, error) {
	params := make([]string, 0, len(coins))
	for _, coin := range coins {
		if strings.TrimSpace(coin) == "" {
			continue
		}
		params = append(params, dsvc.StreamName(f.converter, coin, "ticker"))
	}
	if len(params) == 0 {
		return nil, port.ErrNoSymbols
	}

	wsURL, err := exchange.BuildURL(f.wsURL, "/ws")
	if err != nil {
		return nil, err
	}

	log.Info().Str("feed", f.Name()).Str("url", wsURL).Int("streams", len(params)).Msg("ws connecting")
	conn, err := exchange.DialWS(ctx, wsURL)
	if err != nil {
		return nil, err
	}

	req := subscribeRequest{Method: "SUBSCRIBE", Params: params, ID: f.nextID.Add(1)}
	if err := exchange.WriteJSON(conn, req); err != nil {
		_ = conn.Close()
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(sctx, f.Name(), func(b []byte) {
		if q, ok := f.parse(b); ok {
			onQuote(q)
		}
	})
	return sub, nil
}

// parse 解析一条推送；缺字段或数值无法解析时丢弃
// 用 RawMessage map 精确匹配 key，避免 encoding/json 对 "c"/"C"、"p"/"P" 大小写不敏感的匹配
func (f *TickerFeed) parse(b []byte) (model.PriceQuote, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		log.Debug().Str("feed", f.Name()).Err(err).Msg("json unmarshal failed")
		return model.PriceQuote{}, false
	}
	if _, ok := m["result"]; ok {
		// 订阅确认 {"result":null,"id":1}
		return model.PriceQuote{}, false
	}
	if raw, ok := m["error"]; ok {
		log.Warn().Str("feed", f.Name()).RawJSON("error", raw).Msg("ws request rejected")
		return model.PriceQuote{}, false
	}

	sym, ok1 := field(m, "s")
	price, ok2 := field(m, "c")
	change, ok3 := field(m, "p")
	pct, ok4 := field(m, "P")
	if !(ok1 && ok2 && ok3 && ok4) {
		log.Debug().Str("feed", f.Name()).Msg("drop update with missing fields")
		return model.PriceQuote{}, false
	}

	q, err := model.NewPriceQuote(f.converter.Symbol2Coin(sym), price, change, pct)
	if err != nil {
		log.Debug().Str("feed", f.Name()).Str("symbol", sym).Msg("drop malformed update")
		return model.PriceQuote{}, false
	}
	return q, true
}

func field(m map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

type subscription struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
	once   sync.Once
}

func (s *subscription) run(ctx context.Context, name string, onMsg func([]byte)) {
	err := exchange.ReadWithPing(ctx, s.conn, onMsg)
	_ = s.conn.Close()

	s.mu.Lock()
	if s.closed || errors.Is(err, context.Canceled) {
		err = nil
	}
	s.err = err
	s.mu.Unlock()

	if err != nil {
		log.Warn().Str("feed", name).Err(err).Msg("ws disconnected")
	} else {
		log.Info().Str("feed", name).Msg("ws closed")
	}
	close(s.done)
}

// Close 终止连接；可重复调用
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
	})
	return nil
}

func (s *subscription) Done() <-chan struct{} { return s.done }

// Err 连接结束的原因；主动关闭时为 nil
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

var _ port.PriceFeed = (*TickerFeed)(nil)
