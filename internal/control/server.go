package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/command"
	"github.com/arung-agamani/denpa-radio/internal/sharedstate"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls how the control surface binds and what it exposes.
type Config struct {
	// BindAddr is the address ListenAndServe binds, e.g. ":8090".
	BindAddr string
	// SQLEnabled gates the /sql passthrough resource entirely; disabled by
	// default, the same "off unless an operator opts in" posture the
	// teacher takes with its own debug surfaces.
	SQLEnabled bool
}

// Server is the gin-based HTTP control surface implementing every resource
// named in spec §6. Grounded in the teacher's internal/radio.Server:
// same Start(ctx)/graceful-shutdown shape, same gin.H{"status": ...}
// response idiom as internal/radio/handler.
type Server struct {
	state    *sharedstate.State
	registry *command.Registry
	auth     *SuperuserAuth
	cfg      Config

	router     *gin.Engine
	httpServer *http.Server
}

// NewServer wires routes and returns a Server ready to Start.
func NewServer(state *sharedstate.State, registry *command.Registry, cfg Config) *Server {
	s := &Server{
		state:    state,
		registry: registry,
		auth:     NewSuperuserAuth(state.Catalog),
		cfg:      cfg,
	}

	r := gin.New()
	r.Use(gin.Recovery(), traceID(), negotiateFormat())

	r.GET("/override/enable", s.handleOverrideEnable)
	r.GET("/override/disable", s.handleOverrideDisable)
	r.POST("/override/enable", s.handleOverrideEnable)
	r.POST("/override/disable", s.handleOverrideDisable)

	r.GET("/requirements/fetch", s.handleRequirementsFetch)
	r.POST("/requirements/update", s.auth.Require(), s.handleRequirementsUpdate)
	r.POST("/requirements/runonce", s.auth.Require(), s.handleRequirementsRunonce)

	r.GET("/playlist/fetch", s.handlePlaylistFetch)
	r.GET("/playlist/all", s.handlePlaylistAll)
	r.POST("/playlist/update", s.auth.Require(), s.handlePlaylistUpdate)

	r.POST("/player/pause", s.handlePlayerPause)
	r.POST("/player/stop", s.handlePlayerStop)
	r.GET("/player/state", s.handlePlayerState)
	r.POST("/player/speed", s.handlePlayerSpeed)
	r.POST("/player/seek", s.handlePlayerSeek)

	if cfg.SQLEnabled {
		r.POST("/sql", s.auth.Require(), s.handleSQL)
	} else {
		r.POST("/sql", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "sql passthrough disabled"})
		})
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = r
	s.httpServer = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the HTTP server until ctx is cancelled, then gives in-flight
// requests five seconds to finish — the same shape the teacher's
// internal/radio.Server.Start uses.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("control surface starting", "addr", s.cfg.BindAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// errorResponse writes the teacher's gin.H{"status": "error", ...} shape
// at a status code chosen from the error's kind.
func errorResponse(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
}

func statusFor(err error) int {
	var ce *catalog.ConstraintError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
