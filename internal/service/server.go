package service

import (
	"fmt"

	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

// ServerService handles business logic for servers
type ServerService struct {
	db  *gorm.DB
	bus event.Publisher
}

// NewServerService creates a new ServerService
func NewServerService(db *gorm.DB, bus event.Publisher) *ServerService {
	return &ServerService{db: db, bus: bus}
}

// List returns all servers ordered by name
func (s *ServerService) List() ([]model.Server, error) {
	var servers []model.Server
	err := s.db.Order("name ASC").Find(&servers).Error
	return servers, err
}

// Get returns a single server by ID
func (s *ServerService) Get(id uint) (*model.Server, error) {
	var server model.Server
	if err := s.db.First(&server, id).Error; err != nil {
		return nil, notFound("get server", err)
	}
	return &server, nil
}

// Create adds a new server
func (s *ServerService) Create(req *model.ServerRequest) (*model.Server, error) {
	var count int64
	s.db.Model(&model.Server{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		return nil, ErrNameExists
	}

	server := &model.Server{
		Name:        req.Name,
		IPAddress:   req.IPAddress,
		Description: req.Description,
		XPosition:   floatOrDefault(req.XPosition, 0),
		YPosition:   floatOrDefault(req.YPosition, 0),
	}
	if err := s.db.Create(server).Error; err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	s.publish(event.ServerCreated, server)
	return server, nil
}

// Update modifies an existing server
func (s *ServerService) Update(id uint, req *model.ServerRequest) (*model.Server, error) {
	server, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&model.Server{}).Where("name = ? AND id != ?", req.Name, id).Count(&count)
	if count > 0 {
		return nil, ErrNameExists
	}

	server.Name = req.Name
	server.IPAddress = req.IPAddress
	server.Description = req.Description
	server.XPosition = floatOrDefault(req.XPosition, server.XPosition)
	server.YPosition = floatOrDefault(req.YPosition, server.YPosition)
	if err := s.db.Save(server).Error; err != nil {
		return nil, fmt.Errorf("failed to update server: %w", err)
	}

	s.publish(event.ServerUpdated, server)
	return server, nil
}

// Move stores a new canvas position for the server
func (s *ServerService) Move(id uint, x, y float64) (*model.Server, error) {
	server, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(server).Updates(map[string]any{"x_position": x, "y_position": y}).Error; err != nil {
		return nil, fmt.Errorf("failed to move server: %w", err)
	}
	server.XPosition, server.YPosition = x, y

	s.publish(event.ServerUpdated, server)
	return server, nil
}

// Delete removes a server together with its stacks and connections
func (s *ServerService) Delete(id uint) error {
	result := s.db.Delete(&model.Server{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete server: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete server: %w", ErrNotFound)
	}

	s.bus.Publish(event.Event{Type: event.ServerDeleted, Payload: map[string]any{"id": id}})
	return nil
}

func (s *ServerService) publish(typ string, server *model.Server) {
	s.bus.Publish(event.Event{Type: typ, Payload: map[string]any{
		"id":   server.ID,
		"name": server.Name,
	}})
}

func floatOrDefault(ptr *float64, defaultVal float64) float64 {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
