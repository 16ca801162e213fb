package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/tupyy/artifact-collector/api/v1"
	"github.com/tupyy/artifact-collector/internal/services"
)

// ListCollections returns every collection run, newest first
// (GET /collections)
func (h *Handler) ListCollections(c *gin.Context) {
	runs, err := h.collectionSrv.List(c.Request.Context())
	if err != nil {
		zap.S().Named("http").Errorw("failed to list collections", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: err.Error()})
		return
	}

	resp := v1.CollectionList{Collections: make([]v1.Collection, 0, len(runs))}
	for _, r := range runs {
		var col v1.Collection
		col.FromModel(r)
		resp.Collections = append(resp.Collections, col)
	}

	c.JSON(http.StatusOK, resp)
}

// StartCollection starts a collection run in the background
// (POST /collections)
func (h *Handler) StartCollection(c *gin.Context) {
	var req v1.CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: "invalid request body"})
		return
	}

	run, err := h.collectionSrv.Start(c.Request.Context(), req.ToModel())
	switch {
	case errors.Is(err, services.ErrNoTargets):
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	case err != nil:
		zap.S().Named("http").Errorw("failed to start collection", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: err.Error()})
		return
	}

	var resp v1.Collection
	resp.FromModel(*run)

	c.JSON(http.StatusAccepted, resp)
}

// GetCollection returns a run with its units and results
// (GET /collections/{id})
func (h *Handler) GetCollection(c *gin.Context, id string) {
	run, err := h.collectionSrv.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrRunNotFound):
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, v1.Error{Error: err.Error()})
		return
	}

	var resp v1.Collection
	resp.FromModel(*run)

	c.JSON(http.StatusOK, resp)
}

// StopCollection cancels a running collection
// (DELETE /collections/{id})
func (h *Handler) StopCollection(c *gin.Context, id string) {
	err := h.collectionSrv.Stop(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrRunNotFound):
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
		return
	case errors.Is(err, services.ErrRunNotRunning):
		c.JSON(http.StatusConflict, v1.Error{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, v1.Error{Error: err.Error()})
		return
	}

	c.Status(http.StatusAccepted)
}
