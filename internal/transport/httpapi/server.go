// Package httpapi serves the read-only status surface: watcher health, a
// talib overview per stream, and an HTML chart of the current cache snapshot
// enriched with the watched indicator batch.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ctos/internal/analysis/report"
	"ctos/internal/analysis/visual"
	"ctos/internal/logger"
	"ctos/internal/market"
	"ctos/internal/watcher"
)

type Server struct {
	addr   string
	watch  *watcher.Watcher
	router *gin.Engine
	srv    *http.Server
}

func New(addr string, w *watcher.Watcher) (*Server, error) {
	if w == nil {
		return nil, errors.New("httpapi: watcher is required")
	}
	if addr == "" {
		addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{addr: addr, watch: w, router: router}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	api := s.router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/report", s.handleReport)
	api.GET("/chart", s.handleChart)
	api.GET("/position", s.handlePosition)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.watch.Status())
}

func (s *Server) handleReport(c *gin.Context) {
	key, view, ok := s.lookupView(c)
	if !ok {
		return
	}
	rep, err := report.Compute(view, report.Settings{Symbol: key.Symbol, Interval: key.Interval})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleChart(c *gin.Context) {
	key, view, ok := s.lookupView(c)
	if !ok {
		return
	}
	frame, err := s.watch.WatchedBatch().Enrich(view)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if last, ok := view.Last(); ok {
		c.Header("Content-Disposition",
			fmt.Sprintf("inline; filename=%q", visual.Filename(key.Symbol, key.Interval, last.CloseTime)))
	}
	c.Status(http.StatusOK)
	if err := visual.Render(c.Writer, key.Symbol, key.Interval, frame); err != nil {
		logger.Errorf("[httpapi] chart render %s: %v", key, err)
	}
}

func (s *Server) handlePosition(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	amount, err := s.watch.PositionFor(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, market.ErrNoPosition) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "amount": amount})
}

func (s *Server) lookupView(c *gin.Context) (market.StreamKey, market.Series, bool) {
	key := market.StreamKey{
		Symbol:   c.Query("symbol"),
		Interval: c.Query("interval"),
	}
	if key.Symbol == "" || key.Interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and interval are required"})
		return key, market.Series{}, false
	}
	view, ok := s.watch.View(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stream " + key.String()})
		return key, market.Series{}, false
	}
	return key, view, true
}

// Start serves until the context ends, then drains with a short grace period.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	errC := make(chan error, 1)
	go func() {
		logger.Infof("[httpapi] listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
			return
		}
		errC <- nil
	}()
	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errC
	}
}
