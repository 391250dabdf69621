package service

import (
	"fmt"

	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

// ContainerService reads and deletes container services. Rows are only
// created by StackService.ImportCompose.
type ContainerService struct {
	db  *gorm.DB
	bus event.Publisher
}

// NewContainerService creates a new ContainerService
func NewContainerService(db *gorm.DB, bus event.Publisher) *ContainerService {
	return &ContainerService{db: db, bus: bus}
}

func (s *ContainerService) withStackName() *gorm.DB {
	return s.db.Model(&model.ContainerService{}).
		Select("container_services.*, stacks.name AS stack_name").
		Joins("JOIN stacks ON stacks.id = container_services.stack_id")
}

// List returns container services ordered by stack name then service name.
// A non-zero stackID restricts the list to that stack.
func (s *ContainerService) List(stackID uint) ([]model.ContainerService, error) {
	q := s.withStackName()
	if stackID != 0 {
		q = q.Where("container_services.stack_id = ?", stackID)
	}
	var items []model.ContainerService
	err := q.Order("stacks.name ASC, container_services.service_name ASC").Find(&items).Error
	return items, err
}

// Get returns a single container service by ID
func (s *ContainerService) Get(id uint) (*model.ContainerService, error) {
	var item model.ContainerService
	if err := s.withStackName().Where("container_services.id = ?", id).First(&item).Error; err != nil {
		return nil, notFound("get container service", err)
	}
	return &item, nil
}

// Delete removes one container service. The next import of its stack
// recreates it if the document still lists it.
func (s *ContainerService) Delete(id uint) error {
	result := s.db.Delete(&model.ContainerService{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete container service: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete container service: %w", ErrNotFound)
	}

	s.bus.Publish(event.Event{Type: event.ContainerDeleted, Payload: map[string]any{"id": id}})
	return nil
}
