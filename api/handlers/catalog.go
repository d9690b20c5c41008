package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/quickfind/db/kvdb"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/validation"
)

const defaultEntriesPerPage = 50

type ImportRequest struct {
	Path           string   `json:"path" validate:"required,valid_path"`
	ExcludeFolders []string `json:"exclude_folders" validate:"max=100"`
}

type ImportResponse struct {
	RequestID string `json:"request_id"`
}

type ImportStatusResponse struct {
	RequestID string `json:"request_id"`
	Status    int    `json:"status"`
}

type ListCatalogRequest struct {
	PerPage int `form:"per_page" validate:"min=0,max=500"`
	Page    int `form:"page" validate:"min=0"`
}

func (r *ListCatalogRequest) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultEntriesPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

type ListCatalogResponse struct {
	Entries     []catalog.Entry `json:"entries"`
	PageDetails Pagination      `json:"page_details"`
}

func SetupCatalog(router *gin.Engine, logger logger.Logger, service *catalog.Service, validator *validation.Validator) {
	router.POST("/catalog/import", handleImport(service, logger, validator))
	router.GET("/catalog/import/:id", handleImportStatus(service, logger))
	router.GET("/catalog", handleListCatalog(service, logger, validator))
}

func handleImport(service *catalog.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := ImportRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from import request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate import request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		requestID := uuid.New().String()
		if err := service.Import(request.Path, request.ExcludeFolders, requestID); err != nil {
			statusCode := http.StatusInternalServerError
			if errors.Is(err, catalog.ErrImportInProgress) {
				statusCode = http.StatusConflict
			}
			logger.Warn("could not start import", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, ImportResponse{RequestID: requestID}, http.StatusAccepted, nil)
	}
}

func handleImportStatus(service *catalog.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")
		status, err := service.Status(requestID)
		if err != nil {
			statusCode := http.StatusInternalServerError
			if errors.Is(err, kvdb.ErrNotFound) {
				statusCode = http.StatusNotFound
			}
			logger.Warn("could not get import status", "request_id", requestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, ImportStatusResponse{RequestID: requestID, Status: status}, http.StatusOK, nil)
	}
}

func handleListCatalog(service *catalog.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := ListCatalogRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from catalog request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate catalog request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}
		request.setDefaults()

		entries, err := service.Entries()
		if err != nil {
			logger.Error("could not list catalog", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		offset := (request.Page - 1) * request.PerPage
		start := min(offset, len(entries))
		end := min(offset+request.PerPage, len(entries))

		c.Header(HeaderPaginationTotalCount, strconv.Itoa(len(entries)))
		writeResponse(c, ListCatalogResponse{
			Entries:     entries[start:end],
			PageDetails: calculatePagination(len(entries), request.PerPage, offset),
		}, http.StatusOK, nil)
	}
}
