package service

import (
	"fmt"

	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

// ServerConnectionService handles business logic for directed server links
type ServerConnectionService struct {
	db  *gorm.DB
	bus event.Publisher
}

// NewServerConnectionService creates a new ServerConnectionService
func NewServerConnectionService(db *gorm.DB, bus event.Publisher) *ServerConnectionService {
	return &ServerConnectionService{db: db, bus: bus}
}

func (s *ServerConnectionService) withNames() *gorm.DB {
	return s.db.Model(&model.ServerConnection{}).
		Select("server_connections.*, src.name AS source_name, dst.name AS target_name").
		Joins("JOIN servers src ON src.id = server_connections.source_id").
		Joins("JOIN servers dst ON dst.id = server_connections.target_id")
}

// List returns all server connections ordered by source and target name
func (s *ServerConnectionService) List() ([]model.ServerConnection, error) {
	var conns []model.ServerConnection
	err := s.withNames().Order("src.name ASC, dst.name ASC").Find(&conns).Error
	return conns, err
}

// Get returns a single server connection by ID
func (s *ServerConnectionService) Get(id uint) (*model.ServerConnection, error) {
	var conn model.ServerConnection
	if err := s.withNames().Where("server_connections.id = ?", id).First(&conn).Error; err != nil {
		return nil, notFound("get server connection", err)
	}
	return &conn, nil
}

// Create links two servers
func (s *ServerConnectionService) Create(req *model.ServerConnectionRequest) (*model.ServerConnection, error) {
	if err := s.checkEndpoints(req.Source, req.Target, 0); err != nil {
		return nil, err
	}

	conn := &model.ServerConnection{
		SourceID:  req.Source,
		TargetID:  req.Target,
		IsHealthy: boolPtr(boolOrDefault(req.IsHealthy, true)),
	}
	if err := s.db.Create(conn).Error; err != nil {
		return nil, fmt.Errorf("failed to create server connection: %w", err)
	}

	s.publish(event.ServerConnectionCreated, conn)
	return s.Get(conn.ID)
}

// Update re-targets a connection or changes its health
func (s *ServerConnectionService) Update(id uint, req *model.ServerConnectionRequest) (*model.ServerConnection, error) {
	conn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEndpoints(req.Source, req.Target, id); err != nil {
		return nil, err
	}

	conn.SourceID = req.Source
	conn.TargetID = req.Target
	conn.IsHealthy = boolPtr(boolOrDefault(req.IsHealthy, boolVal(conn.IsHealthy)))
	if err := s.db.Save(conn).Error; err != nil {
		return nil, fmt.Errorf("failed to update server connection: %w", err)
	}

	s.publish(event.ServerConnectionUpdated, conn)
	return s.Get(id)
}

// SetHealth marks a connection healthy (green) or unhealthy (red)
func (s *ServerConnectionService) SetHealth(id uint, healthy bool) (*model.ServerConnection, error) {
	conn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.ServerConnection{}).Where("id = ?", id).Update("is_healthy", healthy).Error; err != nil {
		return nil, fmt.Errorf("failed to update connection health: %w", err)
	}
	conn.IsHealthy = &healthy

	s.publish(event.ServerConnectionUpdated, conn)
	return conn, nil
}

// Delete removes a server connection
func (s *ServerConnectionService) Delete(id uint) error {
	result := s.db.Delete(&model.ServerConnection{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete server connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete server connection: %w", ErrNotFound)
	}

	s.bus.Publish(event.Event{Type: event.ServerConnectionDeleted, Payload: map[string]any{"id": id}})
	return nil
}

// checkEndpoints verifies both servers exist and the pair is not already
// linked by a connection other than excludeID.
func (s *ServerConnectionService) checkEndpoints(source, target, excludeID uint) error {
	var count int64
	s.db.Model(&model.Server{}).Where("id IN ?", []uint{source, target}).Count(&count)
	want := int64(2)
	if source == target {
		want = 1
	}
	if count != want {
		return ErrUnknownEndpoint
	}

	s.db.Model(&model.ServerConnection{}).
		Where("source_id = ? AND target_id = ? AND id != ?", source, target, excludeID).
		Count(&count)
	if count > 0 {
		return ErrConnectionExists
	}
	return nil
}

func (s *ServerConnectionService) publish(typ string, conn *model.ServerConnection) {
	s.bus.Publish(event.Event{Type: typ, Payload: map[string]any{
		"id":         conn.ID,
		"source":     conn.SourceID,
		"target":     conn.TargetID,
		"is_healthy": boolVal(conn.IsHealthy),
	}})
}

func boolOrDefault(ptr *bool, defaultVal bool) bool {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}

func boolPtr(v bool) *bool {
	return &v
}

func boolVal(ptr *bool) bool {
	if ptr != nil {
		return *ptr
	}
	return false
}
