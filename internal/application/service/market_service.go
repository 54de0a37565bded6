package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
	dsvc "cwatch/internal/domain/service"
)

// DefaultSearchLimit 搜索结果上限
const DefaultSearchLimit = 10

// MarketService 行情客户端：一次性搜索 + 长连接订阅
type MarketService struct {
	source    port.TickerSource
	feed      port.PriceFeed
	converter dsvc.SymbolConverter
	limit     int
}

func NewMarketService(source port.TickerSource, feed port.PriceFeed, converter dsvc.SymbolConverter, limit int) *MarketService {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &MarketService{source: source, feed: feed, converter: converter, limit: limit}
}

// Search 拉取全量快照后在本地过滤：以计价货币结尾、包含查询串（不区分大小写）
// 传输失败时返回空列表和错误，空列表非 nil
func (s *MarketService) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	results := make([]model.SearchResult, 0, s.limit)
	if q == "" {
		return results, nil
	}

	tickers, err := s.source.Tickers(ctx)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("fetch tickers failed")
		return results, err
	}

	for _, t := range tickers {
		sym := strings.ToUpper(t.Symbol)
		if !s.converter.HasQuote(sym) || !strings.Contains(sym, q) {
			continue
		}
		quote, err := model.NewPriceQuote(s.converter.Symbol2Coin(sym), t.LastPrice, t.PriceChange, t.PriceChangePercent)
		if err != nil {
			continue
		}
		results = append(results, quote)
		if len(results) >= s.limit {
			break
		}
	}
	return results, nil
}

// Subscribe 为一组币种打开一条行情连接。币种集合变化时由调用方关闭旧句柄再重新订阅
func (s *MarketService) Subscribe(ctx context.Context, coins []string, onQuote func(model.PriceQuote)) (port.Subscription, error) {
	if len(coins) == 0 {
		return nil, port.ErrNoSymbols
	}
	return s.feed.Subscribe(ctx, coins, onQuote)
}

func (s *MarketService) FeedName() string { return s.feed.Name() }
