// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes searches, load more and session history over a
// JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/store"
	"github.com/khampha-vn/khampha/weather"
)

// ClientHeader identifies the caller. A new search supersedes the previous
// session of the same client. Without it the remote address is used.
const ClientHeader = "X-Khampha-Client"

// Searcher runs full searches.
type Searcher interface {
	Search(ctx context.Context, query string) (*discovery.Result, error)
}

// Extender runs load more rounds.
type Extender interface {
	LoadMore(ctx context.Context, sc *discovery.SearchContext) (*discovery.MoreResult, error)
}

// WeatherSource returns current conditions.
type WeatherSource interface {
	Enabled() bool
	Current(ctx context.Context, p spatial.Point, locationName string) (*weather.Conditions, error)
}

type Server struct {
	searcher Searcher
	extender Extender
	repo     store.Repository
	weather  WeatherSource
	live     *liveSessions
	logger   *zap.Logger
}

func NewServer(searcher Searcher, extender Extender, repo store.Repository, wx WeatherSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.L()
	}

	return &Server{
		searcher: searcher,
		extender: extender,
		repo:     repo,
		weather:  wx,
		live:     newLiveSessions(),
		logger:   logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	api := r.Group("/api")
	api.GET("/search", s.search)
	api.POST("/search", s.search)
	api.GET("/suggestions", s.suggestions)
	api.GET("/weather", s.currentWeather)
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id", s.getSession)
	api.POST("/sessions/:id/more", s.loadMore)

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.logger.Debug("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func clientID(ctx *gin.Context) string {
	if c := ctx.GetHeader(ClientHeader); c != "" {
		return c
	}

	return ctx.ClientIP()
}

// searchResponse is a search result with its session id and the weather at
// the resolved place.
type searchResponse struct {
	SessionID string                  `json:"session_id"`
	Place     discovery.ResolvedPlace `json:"place"`
	POIs      []discovery.POI         `json:"pois"`
	Status    discovery.Status        `json:"status"`
	Message   string                  `json:"message,omitempty"`
	Selected  string                  `json:"selected,omitempty"`
	Center    spatial.Point           `json:"center"`
	Weather   *weather.Conditions     `json:"weather"`
}

func statusFor(err error) int {
	if geo.IsRateLimitError(err) {
		return http.StatusTooManyRequests
	}

	var sErr *discovery.SearchError
	if !errors.As(err, &sErr) {
		return http.StatusInternalServerError
	}

	switch sErr.Kind {
	case discovery.KindUserInput:
		return http.StatusBadRequest
	case discovery.KindNotFound, discovery.KindEmptyResult:
		return http.StatusNotFound
	case discovery.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) search(ctx *gin.Context) {
	var req struct {
		Query string `json:"query" form:"q"`
	}

	if ctx.Request.Method == http.MethodPost {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": discovery.MsgEmptyQuery})

			return
		}
	} else {
		req.Query = ctx.Query("q")
	}

	res, err := s.searcher.Search(ctx.Request.Context(), req.Query)
	if err != nil {
		s.logger.Info("search failed", zap.String("query", req.Query), zap.Error(err))
		ctx.JSON(statusFor(err), gin.H{"error": discovery.UserMessage(err)})

		return
	}

	client := clientID(ctx)

	if err := s.repo.SaveSession(ctx.Request.Context(), client, res); err != nil {
		s.logger.Error("saving session", zap.String("session", res.Context.ID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": discovery.MsgSearchFailed})

		return
	}

	s.live.add(client, res.Context)

	ctx.JSON(http.StatusOK, searchResponse{
		SessionID: res.Context.ID,
		Place:     res.Context.Place,
		POIs:      res.POIs,
		Status:    res.Status,
		Message:   res.Message,
		Selected:  res.Selected,
		Center:    res.Center,
		Weather:   s.weatherAt(ctx.Request.Context(), res.Center, req.Query),
	})
}

// weatherAt never fails; weather is an optional decoration.
func (s *Server) weatherAt(ctx context.Context, p spatial.Point, name string) *weather.Conditions {
	if s.weather == nil || !s.weather.Enabled() {
		return nil
	}

	w, err := s.weather.Current(ctx, p, name)
	if err != nil {
		s.logger.Warn("weather lookup failed", zap.Stringer("center", p), zap.Error(err))

		return nil
	}

	return w
}

// loadMore keeps the context of the session between requests so the pacer
// of its search spaces the provider calls of every round, and runs one round
// at a time per session.
func (s *Server) loadMore(ctx *gin.Context) {
	id := ctx.Param("id")

	ls := s.live.get(clientID(ctx), id)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.sc == nil {
		sc, err := s.repo.LoadContext(ctx.Request.Context(), id)
		if err != nil {
			s.live.drop(id, ls)
			s.sessionError(ctx, id, err)

			return
		}

		ls.sc = sc
	}

	more, err := s.extender.LoadMore(ctx.Request.Context(), ls.sc)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": discovery.UserMessage(err)})

		return
	}

	if err := s.repo.AppendPOIs(ctx.Request.Context(), ls.sc, more); err != nil {
		// the cached context is now ahead of the stored one; rounds already
		// waiting on ls reload it
		ls.sc = nil
		s.live.drop(id, ls)
		s.sessionError(ctx, id, err)

		return
	}

	ctx.JSON(http.StatusOK, more)
}

func (s *Server) sessionError(ctx *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, store.ErrSessionSuperseded):
		ctx.JSON(http.StatusConflict, gin.H{"error": "session superseded by a newer search"})
	default:
		s.logger.Error("load more", zap.String("session", id), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": discovery.MsgLoadMoreFailed})
	}
}

func (s *Server) listSessions(ctx *gin.Context) {
	opts := store.ListOptions{Limit: 20, Client: ctx.Query("client")}

	if v := ctx.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})

			return
		}

		opts.Limit = limit
	}

	if v := ctx.Query("near"); v != "" {
		p, err := spatial.ParsePoint(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		opts.Near = &p
	}

	sessions, err := s.repo.ListSessions(ctx.Request.Context(), opts)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if sessions == nil {
		sessions = []*store.Session{}
	}

	ctx.JSON(http.StatusOK, sessions)
}

func (s *Server) getSession(ctx *gin.Context) {
	id := ctx.Param("id")

	session, err := s.repo.GetSession(ctx.Request.Context(), id)
	if errors.Is(err, store.ErrSessionNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "session not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	pois, err := s.repo.SessionPOIs(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if pois == nil {
		pois = []discovery.POI{}
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session, "pois": pois})
}

func (s *Server) currentWeather(ctx *gin.Context) {
	lat, latErr := strconv.ParseFloat(ctx.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(ctx.Query("lon"), 64)

	if latErr != nil || lonErr != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters are required"})

		return
	}

	if err := discovery.ValidateCoordinates(lat, lon); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if s.weather == nil || !s.weather.Enabled() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "weather is not configured"})

		return
	}

	w, err := s.weather.Current(ctx.Request.Context(), spatial.Point{Lat: lat, Lng: lon}, ctx.Query("name"))
	if err != nil {
		s.logger.Warn("weather lookup failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "weather lookup failed"})

		return
	}

	ctx.JSON(http.StatusOK, w)
}

func (s *Server) suggestions(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"cities": discovery.HighlightedCities,
		"center": discovery.DefaultCenter,
	})
}
