package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/model"
	"github.com/web-casa/topoviz/internal/service"
	"gorm.io/gorm"
)

// GraphHandler serves the flat service/connection graph that predates
// servers and stacks
type GraphHandler struct {
	svc      *service.GraphService
	services auditor
	conns    auditor
}

// NewGraphHandler creates a new GraphHandler
func NewGraphHandler(svc *service.GraphService, db *gorm.DB) *GraphHandler {
	return &GraphHandler{
		svc:      svc,
		services: auditor{db: db, target: "service"},
		conns:    auditor{db: db, target: "connection"},
	}
}

// ListServices returns all legacy services
func (h *GraphHandler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": nonNil(services), "total": len(services)})
}

// GetService returns one legacy service
func (h *GraphHandler) GetService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	svc, err := h.svc.GetService(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// CreateService adds a legacy service
func (h *GraphHandler) CreateService(c *gin.Context) {
	var req model.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	svc, err := h.svc.CreateService(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.services.audit(c, "CREATE", svc.ID, fmt.Sprintf("Created service '%s'", svc.Name))
	c.JSON(http.StatusCreated, svc)
}

// UpdateService modifies a legacy service
func (h *GraphHandler) UpdateService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	svc, err := h.svc.UpdateService(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.services.audit(c, "UPDATE", svc.ID, fmt.Sprintf("Updated service '%s'", svc.Name))
	c.JSON(http.StatusOK, svc)
}

// DeleteService removes a legacy service and its connections
func (h *GraphHandler) DeleteService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	if err := h.svc.DeleteService(id); err != nil {
		respondError(c, err)
		return
	}

	h.services.audit(c, "DELETE", id, "Deleted service")
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

// ListConnections returns all legacy connections
func (h *GraphHandler) ListConnections(c *gin.Context) {
	conns, err := h.svc.ListConnections()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": nonNil(conns), "total": len(conns)})
}

// GetConnection returns one legacy connection
func (h *GraphHandler) GetConnection(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	conn, err := h.svc.GetConnection(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// CreateConnection links two legacy services
func (h *GraphHandler) CreateConnection(c *gin.Context) {
	var req model.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	conn, err := h.svc.CreateConnection(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.conns.audit(c, "CREATE", conn.ID, fmt.Sprintf("Linked '%s' → '%s'", conn.SourceName, conn.TargetName))
	c.JSON(http.StatusCreated, conn)
}

// UpdateConnection re-targets a legacy connection
func (h *GraphHandler) UpdateConnection(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	conn, err := h.svc.UpdateConnection(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.conns.audit(c, "UPDATE", conn.ID, fmt.Sprintf("Updated link '%s' → '%s'", conn.SourceName, conn.TargetName))
	c.JSON(http.StatusOK, conn)
}

// DeleteConnection removes a legacy connection
func (h *GraphHandler) DeleteConnection(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	if err := h.svc.DeleteConnection(id); err != nil {
		respondError(c, err)
		return
	}

	h.conns.audit(c, "DELETE", id, "Deleted connection")
	c.JSON(http.StatusOK, gin.H{"message": "Connection deleted successfully"})
}
