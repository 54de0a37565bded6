package port

import (
	"context"
	"errors"

	"cwatch/internal/domain/model"
)

// ErrNoSymbols 订阅时币种列表为空
var ErrNoSymbols = errors.New("symbols empty")

// Ticker 交易所 24h 行情快照中的一条，Symbol 为交易对格式（如 "BTCUSDT"）
type Ticker struct {
	Symbol             string
	LastPrice          string
	PriceChange        string
	PriceChangePercent string
}

// TickerSource 一次性拉取全量行情快照
type TickerSource interface {
	Tickers(ctx context.Context) ([]Ticker, error)
}

// Subscription 长连接订阅句柄。Close 之后不保证不再回调（最后一条在途消息可能仍会送达）
type Subscription interface {
	Close() error
	Done() <-chan struct{}
	Err() error
}

// PriceFeed 订阅一组币种（如 "BTC"）的实时行情，每条更新回调一次，Symbol 已去除计价后缀
type PriceFeed interface {
	Name() string
	Subscribe(ctx context.Context, coins []string, onQuote func(model.PriceQuote)) (Subscription, error)
}
