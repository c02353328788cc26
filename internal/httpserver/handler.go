package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petasbytes/coder-agent/agent"
	"github.com/petasbytes/coder-agent/memory"
)

func (srv *HTTPServer) mapHandlers() {
	srv.gin.Use(gin.Recovery(), srv.requestLogger())

	srv.gin.GET("/health", srv.healthCheck)

	conv := srv.gin.Group("/conversations")
	conv.GET("/:id", srv.getHistory)
	conv.POST("/:id/turns", srv.submitTurn)
}

func (srv *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		srv.l.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

func (srv *HTTPServer) healthCheck(c *gin.Context) {
	OK(c, gin.H{"status": "healthy"})
}

// turnRequest carries raw roles; validation belongs to the turn manager.
type turnRequest struct {
	Messages []memory.Message `json:"messages"`
}

type turnResponse struct {
	HistoryID string `json:"history_id"`
	Reply     string `json:"reply"`
}

type historyResponse struct {
	HistoryID string           `json:"history_id"`
	Messages  []memory.Message `json:"messages"`
}

func (srv *HTTPServer) submitTurn(c *gin.Context) {
	id := c.Param("id")
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	reply, err := srv.turns.SubmitTurn(c.Request.Context(), id, req.Messages)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			srv.l.Warn().Err(err).Str("history_id", id).Msg("turn failed")
		}
		Error(c, status, err)
		return
	}
	OK(c, turnResponse{HistoryID: id, Reply: reply})
}

func (srv *HTTPServer) getHistory(c *gin.Context) {
	id := c.Param("id")
	msgs, ok, err := srv.turns.History(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		Error(c, http.StatusNotFound, errors.New("conversation not found"))
		return
	}
	OK(c, historyResponse{HistoryID: id, Messages: msgs})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrInvalidRole), errors.Is(err, agent.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrGenerationFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
