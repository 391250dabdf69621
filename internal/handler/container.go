package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/service"
	"gorm.io/gorm"
)

// ContainerHandler exposes container services read-only, plus delete.
// They are created by importing a compose document into their stack.
type ContainerHandler struct {
	svc *service.ContainerService
	auditor
}

// NewContainerHandler creates a new ContainerHandler
func NewContainerHandler(svc *service.ContainerService, db *gorm.DB) *ContainerHandler {
	return &ContainerHandler{svc: svc, auditor: auditor{db: db, target: "container_service"}}
}

// List returns container services, optionally only those of ?stack_id=
func (h *ContainerHandler) List(c *gin.Context) {
	stackID, err := queryID(c, "stack_id")
	if err != nil {
		respondInvalidID(c)
		return
	}

	items, err := h.svc.List(stackID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"container_services": nonNil(items), "total": len(items)})
}

// Get returns one container service
func (h *ContainerHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	item, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete removes one container service
func (h *ContainerHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	if err := h.svc.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "DELETE", id, "Deleted container service")
	c.JSON(http.StatusOK, gin.H{"message": "Container service deleted successfully"})
}
