package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/quickfind/config"
	"github.com/meghashyamc/quickfind/db/kvdb"
	"github.com/meghashyamc/quickfind/db/searchdb"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/services/session"
	"github.com/meghashyamc/quickfind/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       *kvdb.BoltDB
	searchdb   *searchdb.BleveDB
	catalog    *catalog.Service
	sessions   *session.Manager
	validator  *validation.Validator
	logger     logger.Logger
	stop       context.CancelFunc
}

// Run serves the HTTP API until ctx is cancelled or the process is
// interrupted, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.NewWithLevel(cfg.GetLogLevel()),
		stop:   cancel,
	}
	if err := s.setupDependencies(ctx); err != nil {
		s.closeDependencies()
		return err
	}
	s.setupRouter()

	return s.serve(ctx)
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	s.kvdb, err = kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.searchdb, err = searchdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}

	s.catalog = catalog.New(ctx, s.logger, s.searchdb, s.kvdb)
	s.sessions = session.NewManager(s.logger, s.catalog)

	return nil
}

func (s *server) setupRouter() {
	if s.cfg.GetLogLevel() != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(s.logger)

	setupRoutes(router, s.logger, routeDependencies{
		catalog:   s.catalog,
		sessions:  s.sessions,
		validator: s.validator,
		sessionDefaults: session.Options{
			DebounceDelay: s.cfg.GetDebounceDelay(),
			PageSize:      s.cfg.GetSearchPageSize(),
			Paginated:     true,
			CacheResults:  s.cfg.GetMaxCacheSize() > 0,
			MaxCacheSize:  s.cfg.GetMaxCacheSize(),
		},
	})

	s.router = router
}

func (s *server) serve(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}

	serveErrC := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrC <- err
		}
		close(serveErrC)
	}()

	var serveErr error
	select {
	case serveErr = <-serveErrC:
		s.logger.Error("http server failed", "err", serveErr.Error())
	case <-ctx.Done():
		s.logger.Info("starting to shut down http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
	}
	s.closeDependencies()

	if serveErr != nil {
		return fmt.Errorf("http server failed: %w", serveErr)
	}
	s.logger.Info("shut down http server successfully")
	return nil
}

func (s *server) closeDependencies() {
	s.stop()
	if s.sessions != nil {
		s.sessions.Close()
	}
	if s.catalog != nil {
		select {
		case <-s.catalog.Stopped():
		case <-time.After(shutdownTimeout):
			s.logger.Warn("catalog import did not stop in time")
		}
	}
	if s.searchdb != nil {
		if err := s.searchdb.Close(); err != nil {
			s.logger.Error("error closing searchDB", "err", err.Error())
		}
	}
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing kvDB", "err", err.Error())
		}
	}
}
