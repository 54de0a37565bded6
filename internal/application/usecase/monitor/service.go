package monitor

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

// WatchlistSource 自选列表的只读视图 + 变更通知
type WatchlistSource interface {
	Symbols() []string
	Selected() (model.Watchlist, bool)
	Watch() (<-chan struct{}, func())
}

// Market 行情订阅
type Market interface {
	FeedName() string
	Subscribe(ctx context.Context, coins []string, onQuote func(model.PriceQuote)) (port.Subscription, error)
}

type ServiceDeps struct {
	Store         WatchlistSource
	Market        Market
	Sink          port.Sink
	Publisher     port.QuotePublisher // optional
	Cache         *PriceCache         // optional, created when nil
	PrintEveryMin int
	NoColor       bool
}

// Service 把自选列表的币种集合单向映射为行情订阅，并把行情写入 PriceCache 用于显示
type Service struct {
	deps  ServiceDeps
	cache *PriceCache
	fmt   *Formatter

	sub     port.Subscription
	subDone <-chan struct{}
	current []string
}

func NewService(deps ServiceDeps) *Service {
	cache := deps.Cache
	if cache == nil {
		cache = NewPriceCache()
	}
	return &Service{
		deps:  deps,
		cache: cache,
		fmt:   NewFormatter(deps.NoColor),
	}
}

func (s *Service) Cache() *PriceCache { return s.cache }

func (s *Service) Run(ctx context.Context) error {
	changes, unwatch := s.deps.Store.Watch()
	defer unwatch()

	quotes := make(chan model.PriceQuote, 1024)
	onQuote := func(q model.PriceQuote) {
		select {
		case quotes <- q:
		case <-ctx.Done():
		}
	}

	s.resubscribe(ctx, onQuote)
	defer s.closeSub()

	var snapC <-chan time.Time
	if s.deps.PrintEveryMin > 0 {
		snapTicker := time.NewTicker(time.Duration(s.deps.PrintEveryMin) * time.Minute)
		defer snapTicker.Stop()
		snapC = snapTicker.C
	}

	s.renderLive()

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case <-changes:
			s.resubscribe(ctx, onQuote)
			s.renderLive()

		case <-s.subDone:
			// 连接断开即终止，不自动重连；币种集合再次变化时才会重新订阅
			log.Warn().Str("feed", s.deps.Market.FeedName()).Err(s.sub.Err()).Msg("price stream closed")
			s.sub = nil
			s.subDone = nil

		case now := <-snapC:
			w, ok := s.deps.Store.Selected()
			_ = s.deps.Sink.WriteSnapshot(now, s.fmt.Render(w, ok, s.cache, RenderSnapshot))

		case q := <-quotes:
			if s.cache.Apply(q) {
				s.renderLive()
			}
			if s.deps.Publisher != nil {
				if err := s.deps.Publisher.PublishQuote(ctx, s.deps.Market.FeedName(), q, time.Now().UnixMilli()); err != nil {
					log.Debug().Err(err).Str("symbol", q.Symbol).Msg("publish quote failed")
				}
			}
		}
	}
}

func (s *Service) renderLive() {
	w, ok := s.deps.Store.Selected()
	_ = s.deps.Sink.WriteLive(s.fmt.Render(w, ok, s.cache, RenderLive))
}

// resubscribe 币种集合变化时关闭旧连接并按新集合重新订阅
func (s *Service) resubscribe(ctx context.Context, onQuote func(model.PriceQuote)) {
	syms := s.deps.Store.Symbols()
	if s.current != nil && sameSet(syms, s.current) {
		return
	}
	s.closeSub()
	s.current = syms

	if len(syms) == 0 {
		log.Info().Msg("no symbols to watch")
		return
	}

	sub, err := s.deps.Market.Subscribe(ctx, syms, onQuote)
	if err != nil {
		log.Error().Err(err).Str("feed", s.deps.Market.FeedName()).Msg("subscribe failed")
		return
	}
	s.sub = sub
	s.subDone = sub.Done()
	log.Info().Str("feed", s.deps.Market.FeedName()).Strs("symbols", syms).Msg("subscribed")
}

func (s *Service) closeSub() {
	if s.sub == nil {
		return
	}
	if err := s.sub.Close(); err != nil {
		log.Warn().Err(err).Msg("close subscription failed")
	}
	s.sub = nil
	s.subDone = nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
