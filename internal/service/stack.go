package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/web-casa/topoviz/internal/compose"
	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

// StackService handles business logic for compose stacks and their
// container services
type StackService struct {
	db     *gorm.DB
	bus    event.Publisher
	logger *slog.Logger
}

// NewStackService creates a new StackService
func NewStackService(db *gorm.DB, bus event.Publisher, logger *slog.Logger) *StackService {
	return &StackService{db: db, bus: bus, logger: logger}
}

func (s *StackService) withServerName(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Stack{}).
		Select("stacks.*, servers.name AS server_name").
		Joins("JOIN servers ON servers.id = stacks.server_id").
		Preload("ContainerServices", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		})
}

// List returns stacks ordered by server name then stack name. A non-zero
// serverID restricts the list to that server.
func (s *StackService) List(serverID uint) ([]model.Stack, error) {
	q := s.withServerName(s.db)
	if serverID != 0 {
		q = q.Where("stacks.server_id = ?", serverID)
	}
	var stacks []model.Stack
	err := q.Order("servers.name ASC, stacks.name ASC").Find(&stacks).Error
	return stacks, err
}

// Get returns a single stack with its container services in document order
func (s *StackService) Get(id uint) (*model.Stack, error) {
	var stack model.Stack
	if err := s.withServerName(s.db).Where("stacks.id = ?", id).First(&stack).Error; err != nil {
		return nil, notFound("get stack", err)
	}
	return &stack, nil
}

// Create adds a stack to a server. The compose content is stored as given;
// ImportCompose turns it into container services.
func (s *StackService) Create(req *model.StackRequest) (*model.Stack, error) {
	if err := s.checkServerAndName(req.Server, req.Name, 0); err != nil {
		return nil, err
	}

	stack := &model.Stack{
		ServerID:             req.Server,
		Name:                 req.Name,
		URL:                  req.URL,
		Description:          req.Description,
		DockerComposeContent: req.DockerComposeContent,
	}
	if err := s.db.Create(stack).Error; err != nil {
		return nil, fmt.Errorf("failed to create stack: %w", err)
	}

	s.publish(event.StackCreated, stack)
	return s.Get(stack.ID)
}

// Update modifies a stack's attributes. Container services are left alone
// until the next import.
func (s *StackService) Update(id uint, req *model.StackRequest) (*model.Stack, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if err := s.checkServerAndName(req.Server, req.Name, id); err != nil {
		return nil, err
	}

	err := s.db.Model(&model.Stack{}).Where("id = ?", id).Updates(map[string]any{
		"server_id":              req.Server,
		"name":                   req.Name,
		"url":                    req.URL,
		"description":            req.Description,
		"docker_compose_content": req.DockerComposeContent,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update stack: %w", err)
	}

	stack, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	s.publish(event.StackUpdated, stack)
	return stack, nil
}

// Delete removes a stack and its container services
func (s *StackService) Delete(id uint) error {
	result := s.db.Delete(&model.Stack{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete stack: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete stack: %w", ErrNotFound)
	}

	s.bus.Publish(event.Event{Type: event.StackDeleted, Payload: map[string]any{"id": id}})
	return nil
}

// ImportCompose parses a compose document into the stack's container
// services. An empty text re-parses the document already stored on the
// stack.
//
// The raw text is saved as soon as it is valid YAML, even if its structure
// turns out to be unusable. A document without a "services" key leaves the
// existing container services untouched. Otherwise all container services
// are deleted and recreated from the document inside one transaction.
func (s *StackService) ImportCompose(id uint, text string) (*model.Stack, error) {
	stack, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		text = stack.DockerComposeContent
	}

	doc, parseErr := compose.Parse(text)
	if compose.IsKind(parseErr, compose.KindEmptyInput) || compose.IsKind(parseErr, compose.KindMalformedDocument) {
		return nil, parseErr
	}

	if err := s.db.Model(&model.Stack{}).Where("id = ?", id).Update("docker_compose_content", text).Error; err != nil {
		return nil, fmt.Errorf("failed to store compose content: %w", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	if !doc.HasServices {
		s.logger.Warn("compose document has no services key; container services unchanged", "stack_id", id)
		return s.Get(id)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stack_id = ?", id).Delete(&model.ContainerService{}).Error; err != nil {
			return fmt.Errorf("delete container services: %w", err)
		}
		for i, svc := range doc.Services {
			row := model.ContainerService{
				StackID:     id,
				ServiceName: svc.Name,
				Image:       svc.Image,
				Ports:       svc.Ports,
				Volumes:     svc.Volumes,
				Networks:    svc.Networks,
				DependsOn:   svc.DependsOn,
				Environment: svc.Environment,
				SortOrder:   i,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create container service %q: %w", svc.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &compose.Error{Kind: compose.KindProcessing, Msg: "replace container services", Err: err}
	}

	s.logger.Info("compose imported", "stack_id", id, "services", len(doc.Services))
	s.bus.Publish(event.Event{Type: event.StackComposeImported, Payload: map[string]any{
		"id":       id,
		"name":     stack.Name,
		"services": doc.Names(),
	}})
	return s.Get(id)
}

// Lint validates the given compose text, or the stored one when text is
// empty, against the compose specification.
func (s *StackService) Lint(ctx context.Context, id uint, text string) (*compose.LintResult, error) {
	stack, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		text = stack.DockerComposeContent
	}
	res := compose.Lint(ctx, stack.Name, text)
	return &res, nil
}

func (s *StackService) checkServerAndName(serverID uint, name string, excludeID uint) error {
	var count int64
	s.db.Model(&model.Server{}).Where("id = ?", serverID).Count(&count)
	if count == 0 {
		return fmt.Errorf("stack server %d: %w", serverID, ErrUnknownEndpoint)
	}

	s.db.Model(&model.Stack{}).Where("server_id = ? AND name = ? AND id != ?", serverID, name, excludeID).Count(&count)
	if count > 0 {
		return ErrNameExists
	}
	return nil
}

func (s *StackService) publish(typ string, stack *model.Stack) {
	s.bus.Publish(event.Event{Type: typ, Payload: map[string]any{
		"id":     stack.ID,
		"server": stack.ServerID,
		"name":   stack.Name,
	}})
}
