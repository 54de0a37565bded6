package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cwatch/internal/application/service"
	"cwatch/internal/domain/model"
)

type nameRequest struct {
	Name string `json:"name"`
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) listWatchlists(c *gin.Context) {
	coll := s.store.Snapshot()
	lists := coll.Lists
	if lists == nil {
		lists = []model.Watchlist{}
	}
	c.JSON(http.StatusOK, gin.H{
		"watchlists": lists,
		"selected":   coll.Selected,
	})
}

func (s *Server) createWatchlist(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.store.Create(c.Request.Context(), req.Name)
	if errors.Is(err, model.ErrEmptyName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.markPersist(c)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) deleteWatchlist(c *gin.Context) {
	s.respond(c, s.store.Delete(c.Request.Context(), c.Param("id")), "")
}

func (s *Server) selectWatchlist(c *gin.Context) {
	s.respond(c, s.store.Select(c.Request.Context(), c.Param("id")), "")
}

func (s *Server) addSymbol(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out := s.store.AddSymbol(c.Request.Context(), c.Param("id"), req.Symbol)
	_, msg := service.AddMessage(req.Symbol, out)
	s.respond(c, out, msg)
}

func (s *Server) removeSymbol(c *gin.Context) {
	s.respond(c, s.store.RemoveSymbol(c.Request.Context(), c.Param("id"), c.Param("symbol")), "")
}

func (s *Server) addToSelected(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out := s.store.AddToSelected(c.Request.Context(), req.Symbol)
	_, msg := service.AddMessage(req.Symbol, out)
	s.respond(c, out, msg)
}

func (s *Server) searchSymbols(c *gin.Context) {
	results, err := s.search.Search(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, service.ErrSearchInFlight):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrSearchFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to search cryptocurrencies",
			"results": []model.SearchResult{},
		})
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) prices(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.Snapshot())
}

// respond 把领域结果映射为 HTTP 状态码
func (s *Server) respond(c *gin.Context, out model.Outcome, msg string) {
	if out == model.OutcomeOK {
		s.markPersist(c)
	}
	body := gin.H{"outcome": out.String()}
	if msg != "" {
		body["message"] = msg
	}
	c.JSON(outcomeStatus(out), body)
}

func (s *Server) markPersist(c *gin.Context) {
	if err := s.store.LastPersistError(); err != nil {
		c.Header(HeaderPersistError, err.Error())
	}
}

func outcomeStatus(out model.Outcome) int {
	switch out {
	case model.OutcomeOK:
		return http.StatusOK
	case model.OutcomeNoSuchList:
		return http.StatusNotFound
	case model.OutcomeAlreadyPresent, model.OutcomeNoSelection:
		return http.StatusConflict
	case model.OutcomeInvalidSymbol:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
