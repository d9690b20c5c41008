package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/fuzzy"
	"github.com/meghashyamc/quickfind/validation"
)

type MatchRequest struct {
	Query string `form:"query" validate:"max=1000"`
	Text  string `form:"text" validate:"max=100000"`
}

type MatchFieldsRequest struct {
	Query  string   `json:"query" validate:"max=1000"`
	Fields []string `json:"fields" validate:"required,min=1,max=100,dive,max=100000"`
}

type MatchResponse struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Indices []int   `json:"indices"`
}

func SetupMatch(router *gin.Engine, logger logger.Logger, validator *validation.Validator) {
	router.GET("/match", handleMatch(logger, validator))
	router.POST("/match", handleMatchFields(logger, validator))
}

func handleMatch(logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := MatchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from match request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate match request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, ok := fuzzy.Match(request.Query, request.Text)
		writeResponse(c, newMatchResponse(result, ok), http.StatusOK, nil)
	}
}

func handleMatchFields(logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := MatchFieldsRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from match request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate match request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, ok := fuzzy.MatchFields(request.Query, request.Fields)
		writeResponse(c, newMatchResponse(result, ok), http.StatusOK, nil)
	}
}

func newMatchResponse(result fuzzy.Result, ok bool) MatchResponse {
	if !ok {
		return MatchResponse{Indices: []int{}}
	}
	return MatchResponse{Matched: true, Score: result.Score, Indices: result.Indices}
}
