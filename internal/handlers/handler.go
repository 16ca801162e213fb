package handlers

import (
	"github.com/tupyy/artifact-collector/internal/services"
)

type Handler struct {
	collectionSrv *services.CollectionService
}

func New(collectionSrv *services.CollectionService) *Handler {
	return &Handler{
		collectionSrv: collectionSrv,
	}
}
