package service

import (
	"fmt"

	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

// GraphService manages the legacy flat services/connections graph
type GraphService struct {
	db  *gorm.DB
	bus event.Publisher
}

// NewGraphService creates a new GraphService
func NewGraphService(db *gorm.DB, bus event.Publisher) *GraphService {
	return &GraphService{db: db, bus: bus}
}

// ── Services ──

// ListServices returns all legacy services ordered by name
func (s *GraphService) ListServices() ([]model.Service, error) {
	var services []model.Service
	err := s.db.Order("name ASC").Find(&services).Error
	return services, err
}

// GetService returns a single legacy service
func (s *GraphService) GetService(id uint) (*model.Service, error) {
	var svc model.Service
	if err := s.db.First(&svc, id).Error; err != nil {
		return nil, notFound("get service", err)
	}
	return &svc, nil
}

// CreateService adds a node to the legacy graph
func (s *GraphService) CreateService(req *model.ServiceRequest) (*model.Service, error) {
	var count int64
	s.db.Model(&model.Service{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		return nil, ErrNameExists
	}

	svc := &model.Service{
		Name:      req.Name,
		URL:       req.URL,
		XPosition: floatOrDefault(req.XPosition, 0),
		YPosition: floatOrDefault(req.YPosition, 0),
	}
	if err := s.db.Create(svc).Error; err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.publishService(event.ServiceCreated, svc)
	return svc, nil
}

// UpdateService modifies a legacy service
func (s *GraphService) UpdateService(id uint, req *model.ServiceRequest) (*model.Service, error) {
	svc, err := s.GetService(id)
	if err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&model.Service{}).Where("name = ? AND id != ?", req.Name, id).Count(&count)
	if count > 0 {
		return nil, ErrNameExists
	}

	svc.Name = req.Name
	svc.URL = req.URL
	svc.XPosition = floatOrDefault(req.XPosition, svc.XPosition)
	svc.YPosition = floatOrDefault(req.YPosition, svc.YPosition)
	if err := s.db.Save(svc).Error; err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.publishService(event.ServiceUpdated, svc)
	return svc, nil
}

// DeleteService removes a legacy service and every connection touching it
func (s *GraphService) DeleteService(id uint) error {
	result := s.db.Delete(&model.Service{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete service: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete service: %w", ErrNotFound)
	}

	s.bus.Publish(event.Event{Type: event.ServiceDeleted, Payload: map[string]any{"id": id}})
	return nil
}

// ── Connections ──

func (s *GraphService) withNames() *gorm.DB {
	return s.db.Model(&model.Connection{}).
		Select("connections.*, src.name AS source_name, dst.name AS target_name").
		Joins("JOIN services src ON src.id = connections.source_id").
		Joins("JOIN services dst ON dst.id = connections.target_id")
}

// ListConnections returns all legacy connections ordered by source and target name
func (s *GraphService) ListConnections() ([]model.Connection, error) {
	var conns []model.Connection
	err := s.withNames().Order("src.name ASC, dst.name ASC").Find(&conns).Error
	return conns, err
}

// GetConnection returns a single legacy connection
func (s *GraphService) GetConnection(id uint) (*model.Connection, error) {
	var conn model.Connection
	if err := s.withNames().Where("connections.id = ?", id).First(&conn).Error; err != nil {
		return nil, notFound("get connection", err)
	}
	return &conn, nil
}

// CreateConnection links two legacy services
func (s *GraphService) CreateConnection(req *model.ConnectionRequest) (*model.Connection, error) {
	if err := s.checkConnection(req.Source, req.Target, 0); err != nil {
		return nil, err
	}

	conn := &model.Connection{SourceID: req.Source, TargetID: req.Target}
	if err := s.db.Create(conn).Error; err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.publishConnection(event.ConnectionCreated, conn)
	return s.GetConnection(conn.ID)
}

// UpdateConnection re-targets a legacy connection
func (s *GraphService) UpdateConnection(id uint, req *model.ConnectionRequest) (*model.Connection, error) {
	if _, err := s.GetConnection(id); err != nil {
		return nil, err
	}
	if err := s.checkConnection(req.Source, req.Target, id); err != nil {
		return nil, err
	}

	err := s.db.Model(&model.Connection{}).Where("id = ?", id).
		Updates(map[string]any{"source_id": req.Source, "target_id": req.Target}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}

	conn, err := s.GetConnection(id)
	if err != nil {
		return nil, err
	}
	s.publishConnection(event.ConnectionUpdated, conn)
	return conn, nil
}

// DeleteConnection removes a legacy connection
func (s *GraphService) DeleteConnection(id uint) error {
	result := s.db.Delete(&model.Connection{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete connection: %w", ErrNotFound)
	}

	s.bus.Publish(event.Event{Type: event.ConnectionDeleted, Payload: map[string]any{"id": id}})
	return nil
}

// checkConnection rejects self links, unknown endpoints and duplicate pairs
func (s *GraphService) checkConnection(source, target, excludeID uint) error {
	if source == target {
		return ErrSelfConnection
	}

	var count int64
	s.db.Model(&model.Service{}).Where("id IN ?", []uint{source, target}).Count(&count)
	if count != 2 {
		return ErrUnknownEndpoint
	}

	s.db.Model(&model.Connection{}).
		Where("source_id = ? AND target_id = ? AND id != ?", source, target, excludeID).
		Count(&count)
	if count > 0 {
		return ErrConnectionExists
	}
	return nil
}

func (s *GraphService) publishService(typ string, svc *model.Service) {
	s.bus.Publish(event.Event{Type: typ, Payload: map[string]any{
		"id":   svc.ID,
		"name": svc.Name,
	}})
}

func (s *GraphService) publishConnection(typ string, conn *model.Connection) {
	s.bus.Publish(event.Event{Type: typ, Payload: map[string]any{
		"id":     conn.ID,
		"source": conn.SourceID,
		"target": conn.TargetID,
	}})
}
