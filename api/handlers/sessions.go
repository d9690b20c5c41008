package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/services/search"
	"github.com/meghashyamc/quickfind/services/session"
	"github.com/meghashyamc/quickfind/validation"
)

type CreateSessionRequest struct {
	Mode         string `json:"mode" validate:"required,valid_mode"`
	DebounceMS   *int   `json:"debounce_ms" validate:"omitempty,min=0,max=10000"`
	PageSize     int    `json:"page_size" validate:"min=0,max=100"`
	Paginated    *bool  `json:"paginated"`
	CacheResults *bool  `json:"cache_results"`
	MaxCacheSize *int   `json:"max_cache_size" validate:"omitempty,min=0,max=1000"`
}

// options overlays the request on the server defaults.
func (r *CreateSessionRequest) options(defaults session.Options) session.Options {
	opts := defaults
	opts.Mode = session.Mode(r.Mode)

	if r.DebounceMS != nil {
		opts.DebounceDelay = time.Duration(*r.DebounceMS) * time.Millisecond
	}
	if r.PageSize > 0 {
		opts.PageSize = r.PageSize
	}
	if r.Paginated != nil {
		opts.Paginated = *r.Paginated
	}
	if r.CacheResults != nil {
		opts.CacheResults = *r.CacheResults
	}
	if r.MaxCacheSize != nil {
		opts.MaxCacheSize = *r.MaxCacheSize
	}

	return opts
}

type SearchRequest struct {
	Query     string `json:"query" validate:"max=1000"`
	Immediate bool   `json:"immediate"`
}

type SessionResponse struct {
	ID        string       `json:"id"`
	Mode      session.Mode `json:"mode"`
	CreatedAt time.Time    `json:"created_at"`
	search.Snapshot[catalog.Entry]
}

func newSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Mode:      s.Mode,
		CreatedAt: s.CreatedAt,
		Snapshot:  s.Controller.Snapshot(),
	}
}

func SetupSessions(router *gin.Engine, logger logger.Logger, manager *session.Manager, validator *validation.Validator, defaults session.Options) {
	sessions := router.Group("/sessions")
	sessions.POST("", handleCreateSession(manager, logger, validator, defaults))
	sessions.GET("/:id", handleGetSession(manager, logger))
	sessions.DELETE("/:id", handleDeleteSession(manager, logger))
	sessions.POST("/:id/search", handleSessionSearch(manager, logger, validator))
	sessions.POST("/:id/more", handleSessionLoadMore(manager, logger))
	sessions.POST("/:id/items/reload", handleReloadSessionItems(manager, logger))
	sessions.GET("/:id/events", handleSessionEvents(manager, logger))
}

func handleCreateSession(manager *session.Manager, logger logger.Logger, validator *validation.Validator, defaults session.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := CreateSessionRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from create session request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate create session request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		s, err := manager.Create(request.options(defaults))
		if err != nil {
			logger.Error("could not create session", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, newSessionResponse(s), http.StatusCreated, nil)
	}
}

func handleGetSession(manager *session.Manager, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := getSession(c, manager, logger)
		if !ok {
			return
		}

		writeResponse(c, newSessionResponse(s), http.StatusOK, nil)
	}
}

func handleDeleteSession(manager *session.Manager, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := manager.Delete(c.Param("id")); err != nil {
			writeSessionError(c, logger, err)
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}

func handleSessionSearch(manager *session.Manager, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := getSession(c, manager, logger)
		if !ok {
			return
		}

		request := SearchRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		if request.Immediate {
			s.Controller.SearchImmediate(request.Query)
		} else {
			s.Controller.Search(request.Query)
		}

		writeResponse(c, newSessionResponse(s), http.StatusAccepted, nil)
	}
}

func handleSessionLoadMore(manager *session.Manager, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := getSession(c, manager, logger)
		if !ok {
			return
		}

		s.Controller.LoadMore()
		writeResponse(c, newSessionResponse(s), http.StatusAccepted, nil)
	}
}

func handleReloadSessionItems(manager *session.Manager, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := manager.ReloadItems(id); err != nil {
			writeSessionError(c, logger, err)
			return
		}

		s, ok := getSession(c, manager, logger)
		if !ok {
			return
		}
		writeResponse(c, newSessionResponse(s), http.StatusOK, nil)
	}
}

func getSession(c *gin.Context, manager *session.Manager, logger logger.Logger) (*session.Session, bool) {
	s, err := manager.Get(c.Param("id"))
	if err != nil {
		writeSessionError(c, logger, err)
		return nil, false
	}
	return s, true
}

func writeSessionError(c *gin.Context, logger logger.Logger, err error) {
	statusCode := http.StatusInternalServerError
	if errors.Is(err, session.ErrNotFound) {
		statusCode = http.StatusNotFound
		logger.Warn("session not found", "session_id", c.Param("id"))
	} else {
		logger.Error("session request failed", "session_id", c.Param("id"), "err", err.Error())
	}

	c.Abort()
	writeResponse(c, nil, statusCode, []string{err.Error()})
}
