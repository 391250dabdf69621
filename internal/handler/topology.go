package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/service"
)

// TopologyHandler serves the whole graph in one response
type TopologyHandler struct {
	svc *service.TopologyService
}

// NewTopologyHandler creates a new TopologyHandler
func NewTopologyHandler(svc *service.TopologyService) *TopologyHandler {
	return &TopologyHandler{svc: svc}
}

// Get returns servers, their links and stacks, and the legacy graph
func (h *TopologyHandler) Get(c *gin.Context) {
	topo, err := h.svc.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topo)
}
