package api

import (
	"errors"
	"net/http"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the error taxonomy onto HTTP statuses. Responses
// carry the resource name and id so callers can build actionable
// messages; internal details never leak.
func (s *Server) respondError(c *gin.Context, err error) {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    nf.Error(),
			"resource": nf.Resource,
			"id":       nf.ID,
		})
		return
	}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    ve.Error(),
			"resource": ve.Resource,
		})
		return
	}

	var ce *apperr.ConflictError
	if errors.As(err, &ce) {
		c.JSON(http.StatusConflict, gin.H{
			"error":    ce.Error(),
			"resource": ce.Resource,
			"id":       ce.ID,
		})
		return
	}

	s.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// badRequest rejects a request whose body or parameters did not parse.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
