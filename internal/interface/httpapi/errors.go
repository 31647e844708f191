package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinford/polidex/internal/core/apperr"
)

// errorBody はエラーレスポンスの形式
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: message}})
}

// writeError はエラー種別に応じたステータスコードで応答する
// 種別不明のエラーは内容を返さずログにのみ残す
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperr.ErrConflict):
		abortWithError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		s.logger.Error("upstream unavailable", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusBadGateway, "upstream_unavailable", "an upstream service is unavailable")
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
