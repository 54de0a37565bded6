package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"cwatch/internal/application/port"
	"cwatch/internal/application/service"
	"cwatch/internal/application/usecase/monitor"
	domainservice "cwatch/internal/domain/service"
	"cwatch/internal/infrastructure/config"
	_ "cwatch/internal/infrastructure/exchange/binance" // register BINANCE price feed
	"cwatch/internal/infrastructure/pricefeed"
	"cwatch/internal/infrastructure/storage"
	"cwatch/internal/infrastructure/storage/composite"
	filestore "cwatch/internal/infrastructure/storage/file"
	pgrepo "cwatch/internal/infrastructure/storage/postgres"
	redisrepo "cwatch/internal/infrastructure/storage/redis"
	sqliterepo "cwatch/internal/infrastructure/storage/sqlite"
	"cwatch/internal/interfaces/console"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	blobs      port.BlobStore
	redisRepo  *redisrepo.Repo
	sqliteRepo *sqliterepo.Repo
	pgRepo     *pgrepo.Repo
	publishers composite.Publishers

	// 输出端口
	Sink *console.Sink

	// 应用业务组件（依赖基础设施）
	Watchlists *service.WatchlistStore
	Market     *service.MarketService
	Search     *service.SearchService
	Cache      *monitor.PriceCache

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	return NewWithSink(ctx, cfg, console.NewSink())
}

// NewWithSink 同 New，可指定输出端（测试或 CLI 子命令使用）
func NewWithSink(ctx context.Context, cfg *config.Config, sink *console.Sink) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Sink:        sink,
		Cache:       monitor.NewPriceCache(),
		closerChain: make([]func() error, 0),
	}

	// 初始化所有组件，按依赖顺序
	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 初始化所有应用组件
func (sc *ServiceContext) initializeComponents() error {
	// 0. 存储层
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInitFailed, err)
	}

	// 1. 自选列表
	persist := service.NewPersistence(sc.blobs, sc.Config.Storage.Key)
	sc.Watchlists = service.NewWatchlistStore(sc.Ctx, persist)

	// 2. 行情源
	exName := sc.Config.Market.Exchange
	factory, ok := pricefeed.Get(exName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFeedNotRegistered, exName)
	}
	converter := domainservice.NewQuoteConverter(sc.Config.Symbols.Quote)
	feed, source := factory(pricefeed.Endpoints{
		RestURL: sc.Config.Exchange.Binance.RestURL,
		WsURL:   sc.Config.Exchange.Binance.WsURL,
	}, converter)

	sc.Market = service.NewMarketService(source, feed, converter, sc.Config.Market.SearchLimit)
	sc.Search = service.NewSearchService(sc.Market, sc.Sink)

	log.Info().
		Str("exchange", exName).
		Str("quote", converter.Quote()).
		Str("storage", sc.Config.Storage.Backend).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 按配置创建主存储和镜像，并收集行情发布端
func (sc *ServiceContext) initializeStorage() error {
	backends := append([]string{sc.Config.Storage.Backend}, sc.Config.Storage.Mirror...)
	stores := make([]port.BlobStore, 0, len(backends))
	for _, b := range backends {
		s, err := sc.openBackend(b)
		if err != nil {
			return fmt.Errorf("%s: %w", b, err)
		}
		stores = append(stores, s)

		name := b
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Str("backend", name).Msg("closing storage")
			return s.Close()
		})
	}

	if len(stores) == 1 {
		sc.blobs = stores[0]
	} else {
		sc.blobs = composite.New(stores...)
	}

	if sc.Config.Quotes.Publish {
		if sc.redisRepo == nil {
			// 只用于发布行情，不作为存储
			if err := sc.initRedis(); err != nil {
				return err
			}
			repo := sc.redisRepo
			sc.closerChain = append(sc.closerChain, func() error {
				log.Info().Msg("closing redis connection")
				return repo.Close()
			})
		}
		sc.publishers = append(sc.publishers, sc.redisRepo)
		if sc.sqliteRepo != nil {
			sc.publishers = append(sc.publishers, sc.sqliteRepo)
		}
		if sc.pgRepo != nil {
			sc.publishers = append(sc.publishers, sc.pgRepo)
		}
	}
	return nil
}

func (sc *ServiceContext) openBackend(backend string) (port.BlobStore, error) {
	switch backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil

	case config.BackendFile:
		s, err := filestore.New(sc.Config.Storage.File.Dir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", sc.Config.Storage.File.Dir).Msg("✓ File store initialized")
		return s, nil

	case config.BackendSQLite:
		repo, err := sqliterepo.New(sc.Config.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite repo creation failed: %w", err)
		}
		sc.sqliteRepo = repo
		log.Info().Str("path", sc.Config.Storage.SQLite.Path).Msg("✓ SQLite initialized")
		return repo, nil

	case config.BackendRedis:
		if err := sc.initRedis(); err != nil {
			return nil, err
		}
		return sc.redisRepo, nil

	case config.BackendPostgres:
		repo, err := pgrepo.New(sc.Config.Storage.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres repo creation failed: %w", err)
		}
		sc.pgRepo = repo
		log.Info().Msg("✓ Postgres initialized")
		return repo, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	rc := sc.Config.Storage.Redis
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(sc.Config.Quotes.TTLSeconds) * time.Second
	sc.redisRepo = redisrepo.New(rdb, rc.Prefix, ttl, sc.Config.Quotes.Channel)

	log.Info().
		Str("addr", rc.Addr).
		Int("db", rc.DB).
		Msg("✓ Redis initialized")
	return nil
}

// GetRedisRepo 获取 Redis 仓储
func (sc *ServiceContext) GetRedisRepo() *redisrepo.Repo {
	return sc.redisRepo
}

// GetSQLiteRepo 获取 SQLite 仓储
func (sc *ServiceContext) GetSQLiteRepo() *sqliterepo.Repo {
	return sc.sqliteRepo
}

// BuildMonitorServiceDeps 构建 Monitor Service 所需的所有依赖
func (sc *ServiceContext) BuildMonitorServiceDeps() monitor.ServiceDeps {
	deps := monitor.ServiceDeps{
		Store:         sc.Watchlists,
		Market:        sc.Market,
		Sink:          sc.Sink,
		Cache:         sc.Cache,
		PrintEveryMin: sc.Config.App.PrintEveryMin,
		NoColor:       sc.Config.App.NoColor,
	}
	if len(sc.publishers) > 0 {
		deps.Publisher = sc.publishers
	}
	return deps
}

// Close 关闭 ServiceContext 中的所有资源
// 应该在应用退出时调用
func (sc *ServiceContext) Close() error {
	// 按照相反的顺序关闭所有资源
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
