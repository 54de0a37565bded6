package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

var (
	// ErrSearchInFlight 上一次搜索尚未返回
	ErrSearchInFlight = errors.New("search already in flight")
	// ErrSearchFailed 搜索请求失败（结果为空列表）
	ErrSearchFailed = errors.New("failed to search cryptocurrencies")
)

// SearchService 在 MarketService.Search 外加一个"进行中"标记，禁止重入；不排队、不取消
type SearchService struct {
	market   *MarketService
	notifier port.Notifier
	inFlight atomic.Bool
}

func NewSearchService(market *MarketService, notifier port.Notifier) *SearchService {
	return &SearchService{market: market, notifier: notifier}
}

func (s *SearchService) InFlight() bool { return s.inFlight.Load() }

// Search 返回最多 limit 条结果。失败时仍返回空列表，同时通知用户并返回 ErrSearchFailed
func (s *SearchService) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSearchInFlight
	}
	defer s.inFlight.Store(false)

	results, err := s.market.Search(ctx, query)
	if err != nil {
		s.notify(port.SeverityError, "Failed to search cryptocurrencies")
		return results, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	return results, nil
}

func (s *SearchService) notify(sev port.Severity, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(sev, msg)
	}
}

// AddMessage 把添加币种的结果转换成用户提示
func AddMessage(symbol string, out model.Outcome) (port.Severity, string) {
	sym := model.NormalizeSymbol(symbol)
	switch out {
	case model.OutcomeOK:
		return port.SeverityInfo, fmt.Sprintf("Added %s to watchlist", sym)
	case model.OutcomeAlreadyPresent:
		return port.SeverityError, fmt.Sprintf("%s is already in the watchlist", sym)
	case model.OutcomeNoSelection:
		return port.SeverityError, "Please select or create a watchlist first"
	case model.OutcomeNoSuchList:
		return port.SeverityError, "Watchlist not found"
	case model.OutcomeInvalidSymbol:
		return port.SeverityError, "Symbol is empty"
	default:
		return port.SeverityError, out.String()
	}
}
