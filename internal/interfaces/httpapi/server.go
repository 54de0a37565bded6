package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"cwatch/internal/application/service"
	"cwatch/internal/application/usecase/monitor"
)

// HeaderPersistError 最近一次落盘失败时附带的响应头
const HeaderPersistError = "X-Persist-Error"

// Server 自选列表的 HTTP 接口
type Server struct {
	store  *service.WatchlistStore
	search *service.SearchService
	cache  *monitor.PriceCache
	engine *gin.Engine
}

func New(store *service.WatchlistStore, search *service.SearchService, cache *monitor.PriceCache) *Server {
	s := &Server{store: store, search: search, cache: cache}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API 路由
	api := r.Group("/api")
	{
		api.GET("/watchlists", s.listWatchlists)
		api.POST("/watchlists", s.createWatchlist)
		api.DELETE("/watchlists/:id", s.deleteWatchlist)
		api.POST("/watchlists/:id/select", s.selectWatchlist)
		api.POST("/watchlists/:id/symbols", s.addSymbol)
		api.DELETE("/watchlists/:id/symbols/:symbol", s.removeSymbol)
		api.POST("/selected/symbols", s.addToSelected)
		api.GET("/search", s.searchSymbols)
		api.GET("/prices", s.prices)
	}
	return r
}

// Run 阻塞直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown failed")
		}
		return ctx.Err()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
