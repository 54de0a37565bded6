package binance

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cwatch/internal/application/port"
)

const tickerPath = "/api/v3/ticker/24hr"

// TickerClient Binance 现货 24h 行情 REST 客户端
type TickerClient struct {
	baseURL    string
	httpClient *http.Client
}

// ticker24hr 24h 行情响应中用到的字段；数值保持字符串，不转 float
type ticker24hr struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// NewTickerClient 创建 REST 客户端，baseURL 为空时使用官方地址
func NewTickerClient(baseURL string) *TickerClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.binance.com"
	}
	return &TickerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Tickers 获取全部交易对的 24h 行情快照
func (c *TickerClient) Tickers(ctx context.Context) ([]port.Ticker, error) {
	var raw []ticker24hr
	if err := c.publicGet(ctx, tickerPath, &raw); err != nil {
		return nil, err
	}

	out := make([]port.Ticker, 0, len(raw))
	for _, t := range raw {
		out = append(out, port.Ticker{
			Symbol:             t.Symbol,
			LastPrice:          t.LastPrice,
			PriceChange:        t.PriceChange,
			PriceChangePercent: t.PriceChangePercent,
		})
	}
	return out, nil
}

var _ port.TickerSource = (*TickerClient)(nil)
