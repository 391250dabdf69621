package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/model"
	"github.com/web-casa/topoviz/internal/service"
	"gorm.io/gorm"
)

// StackHandler manages compose stacks and the compose import
type StackHandler struct {
	svc *service.StackService
	auditor
}

// NewStackHandler creates a new StackHandler
func NewStackHandler(svc *service.StackService, db *gorm.DB) *StackHandler {
	return &StackHandler{svc: svc, auditor: auditor{db: db, target: "stack"}}
}

// List returns stacks, optionally only those of ?server_id=
func (h *StackHandler) List(c *gin.Context) {
	serverID, err := queryID(c, "server_id")
	if err != nil {
		respondInvalidID(c)
		return
	}

	stacks, err := h.svc.List(serverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stacks": nonNil(stacks), "total": len(stacks)})
}

// Get returns a single stack with its container services
func (h *StackHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	stack, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stack)
}

// Create adds a stack to a server
func (h *StackHandler) Create(c *gin.Context) {
	var req model.StackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	stack, err := h.svc.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "CREATE", stack.ID, fmt.Sprintf("Created stack '%s' on '%s'", stack.Name, stack.ServerName))
	c.JSON(http.StatusCreated, stack)
}

// Update modifies a stack
func (h *StackHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.StackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	stack, err := h.svc.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "UPDATE", stack.ID, fmt.Sprintf("Updated stack '%s'", stack.Name))
	c.JSON(http.StatusOK, stack)
}

// Delete removes a stack and its container services
func (h *StackHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	if err := h.svc.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "DELETE", id, "Deleted stack")
	c.JSON(http.StatusOK, gin.H{"message": "Stack deleted successfully"})
}

// ParseCompose imports a compose document into the stack's container
// services. An empty or missing body re-imports the stored document.
func (h *StackHandler) ParseCompose(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	req, ok := bindCompose(c)
	if !ok {
		return
	}

	stack, err := h.svc.ImportCompose(id, req.DockerComposeContent)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "IMPORT", stack.ID, fmt.Sprintf("Imported %d container services into '%s'", len(stack.ContainerServices), stack.Name))
	c.JSON(http.StatusOK, stack)
}

// Lint checks a compose document against the compose specification without
// changing anything
func (h *StackHandler) Lint(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	req, ok := bindCompose(c)
	if !ok {
		return
	}

	res, err := h.svc.Lint(c.Request.Context(), id, req.DockerComposeContent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bindCompose(c *gin.Context) (model.ParseComposeRequest, bool) {
	var req model.ParseComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return req, false
	}
	return req, true
}
