// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package adminapi exposes the key-level resolver operations over HTTP.
package adminapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cardinalhq/settingsmanager/internal/adminconfig"
	"github.com/cardinalhq/settingsmanager/internal/logctx"
	"github.com/cardinalhq/settingsmanager/settings"
)

type Config struct {
	Addr       string `mapstructure:"addr"`
	ConfigFile string `mapstructure:"config_file"`
}

func DefaultConfig() Config {
	return Config{Addr: ":8080"}
}

type Server struct {
	resolver *settings.Resolver
	auth     adminconfig.AdminConfigProvider
	addr     string
	engine   *gin.Engine
}

func NewServer(cfg Config, resolver *settings.Resolver, auth adminconfig.AdminConfigProvider) (*Server, error) {
	if resolver == nil {
		return nil, errors.New("adminapi: resolver is required")
	}
	if auth == nil {
		return nil, errors.New("adminapi: admin config provider is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	s := &Server{
		resolver: resolver,
		auth:     auth,
		addr:     cfg.Addr,
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	// Record keys are type names and may contain escaped slashes.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), requestLogger())

	v1 := r.Group("/api/v1", s.authenticate())

	read := v1.Group("", requireScope(adminconfig.ScopeRead))
	read.GET("/records/:key/tenants/:tenant", s.getRecord)
	read.GET("/records/:key/resolve", s.resolveRecord)
	read.GET("/features/:key/tenants/:tenant", s.getFeature)
	read.GET("/tenants/:tenant/records", s.listRecords)

	write := v1.Group("", requireScope(adminconfig.ScopeWrite))
	write.PUT("/records/:key/tenants/:tenant", s.putRecord)
	write.DELETE("/records/:key/tenants/:tenant", s.deleteRecord)

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting admin API server", slog.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down admin API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// requestLogger attaches a request-scoped logger to the request context so
// resolver log lines carry the route.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logctx.With(c.Request.Context(),
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		logctx.FromContext(ctx).Debug("Admin API request",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}
