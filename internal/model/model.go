package model

import (
	"time"
)

// User represents a panel administrator
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash, never exposed in JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Server is the outer level of the topology: a machine running stacks
type Server struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	IPAddress   string    `gorm:"not null;size:45" json:"ip_address"`
	Description string    `gorm:"type:text" json:"description"`
	XPosition   float64   `gorm:"default:0" json:"x_position"`
	YPosition   float64   `gorm:"default:0" json:"y_position"`
	Stacks      []Stack   `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ServerConnection is a directed, health-annotated link between two servers
type ServerConnection struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SourceID   uint      `gorm:"not null;uniqueIndex:idx_server_conn_pair" json:"source"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_server_conn_pair" json:"target"`
	Source     *Server   `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE" json:"-"`
	Target     *Server   `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE" json:"-"`
	SourceName string    `gorm:"->;-:migration" json:"source_name"`
	TargetName string    `gorm:"->;-:migration" json:"target_name"`
	IsHealthy  *bool     `gorm:"default:true" json:"is_healthy"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Stack is one docker-compose project deployed on a server
type Stack struct {
	ID                   uint               `gorm:"primaryKey" json:"id"`
	ServerID             uint               `gorm:"not null;uniqueIndex:idx_stack_server_name" json:"server"`
	ServerName           string             `gorm:"->;-:migration" json:"server_name"`
	Name                 string             `gorm:"not null;size:100;uniqueIndex:idx_stack_server_name" json:"name"`
	URL                  string             `gorm:"size:500" json:"url"`
	Description          string             `gorm:"type:text" json:"description"`
	DockerComposeContent string             `gorm:"type:text" json:"docker_compose_content"`
	ContainerServices    []ContainerService `gorm:"foreignKey:StackID;constraint:OnDelete:CASCADE" json:"container_services"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// ContainerService is one service definition inside a stack's compose document.
// Rows are only ever written by the compose import.
type ContainerService struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	StackID     uint              `gorm:"not null;uniqueIndex:idx_container_stack_name" json:"stack"`
	StackName   string            `gorm:"->;-:migration" json:"stack_name,omitempty"`
	ServiceName string            `gorm:"not null;size:100;uniqueIndex:idx_container_stack_name" json:"service_name"`
	Image       string            `gorm:"size:200" json:"image"`
	Ports       []any             `gorm:"serializer:json;type:text" json:"ports"`
	Volumes     []any             `gorm:"serializer:json;type:text" json:"volumes"`
	Networks    []string          `gorm:"serializer:json;type:text" json:"networks"`
	DependsOn   []string          `gorm:"serializer:json;type:text" json:"depends_on"`
	Environment map[string]string `gorm:"serializer:json;type:text" json:"environment"`
	SortOrder   int               `gorm:"default:0" json:"-"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Service is a node of the legacy flat services graph
type Service struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	XPosition float64   `gorm:"default:0" json:"x_position"`
	YPosition float64   `gorm:"default:0" json:"y_position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Connection is an edge of the legacy flat services graph
type Connection struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SourceID   uint      `gorm:"not null;uniqueIndex:idx_conn_pair" json:"source"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_conn_pair" json:"target"`
	Source     *Service  `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE" json:"-"`
	Target     *Service  `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE" json:"-"`
	SourceName string    `gorm:"->;-:migration" json:"source_name"`
	TargetName string    `gorm:"->;-:migration" json:"target_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLog records every mutation made through the API
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Username  string    `gorm:"size:64" json:"username"`
	Action    string    `gorm:"size:32;not null" json:"action"` // CREATE, UPDATE, DELETE, IMPORT ...
	Target    string    `gorm:"size:32" json:"target"`          // server, stack, connection ...
	TargetID  string    `gorm:"size:32" json:"target_id"`
	Detail    string    `gorm:"type:text" json:"detail"`
	IP        string    `gorm:"size:45" json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model migrated by the database package
func All() []any {
	return []any{
		&User{},
		&Server{},
		&ServerConnection{},
		&Stack{},
		&ContainerService{},
		&Service{},
		&Connection{},
		&AuditLog{},
	}
}

// ServerRequest is the request body for creating/updating a server
type ServerRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	IPAddress   string   `json:"ip_address" binding:"required,ip"`
	Description string   `json:"description"`
	XPosition   *float64 `json:"x_position"`
	YPosition   *float64 `json:"y_position"`
}

// PositionRequest moves a node on the canvas
type PositionRequest struct {
	XPosition float64 `json:"x_position"`
	YPosition float64 `json:"y_position"`
}

// ServerConnectionRequest is the request body for creating/updating a server connection
type ServerConnectionRequest struct {
	Source    uint  `json:"source" binding:"required"`
	Target    uint  `json:"target" binding:"required"`
	IsHealthy *bool `json:"is_healthy"`
}

// HealthRequest flips the health flag of a server connection
type HealthRequest struct {
	IsHealthy *bool `json:"is_healthy" binding:"required"`
}

// StackRequest is the request body for creating/updating a stack
type StackRequest struct {
	Server               uint   `json:"server" binding:"required"`
	Name                 string `json:"name" binding:"required,max=100"`
	URL                  string `json:"url" binding:"omitempty,url,max=500"`
	Description          string `json:"description"`
	DockerComposeContent string `json:"docker_compose_content"`
}

// ParseComposeRequest carries an optional compose document; empty means re-parse the stored one
type ParseComposeRequest struct {
	DockerComposeContent string `json:"docker_compose_content"`
}

// ServiceRequest is the request body for creating/updating a legacy service
type ServiceRequest struct {
	Name      string   `json:"name" binding:"required,max=100"`
	URL       string   `json:"url" binding:"required,url,max=500"`
	XPosition *float64 `json:"x_position"`
	YPosition *float64 `json:"y_position"`
}

// ConnectionRequest is the request body for creating/updating a legacy connection
type ConnectionRequest struct {
	Source uint `json:"source" binding:"required"`
	Target uint `json:"target" binding:"required"`
}

// Topology is the whole graph rendered by the visualization page
type Topology struct {
	Servers           []Server           `json:"servers"`
	ServerConnections []ServerConnection `json:"server_connections"`
	Stacks            []Stack            `json:"stacks"`
	Services          []Service          `json:"services"`
	Connections       []Connection       `json:"connections"`
}
