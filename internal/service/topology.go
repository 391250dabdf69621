package service

import (
	"fmt"

	"github.com/web-casa/topoviz/internal/model"
)

// TopologyService assembles the full graph for the visualization page
type TopologyService struct {
	servers *ServerService
	links   *ServerConnectionService
	stacks  *StackService
	graph   *GraphService
}

// NewTopologyService creates a new TopologyService
func NewTopologyService(servers *ServerService, links *ServerConnectionService, stacks *StackService, graph *GraphService) *TopologyService {
	return &TopologyService{servers: servers, links: links, stacks: stacks, graph: graph}
}

// Snapshot returns every server, link, stack (with its container services)
// and the legacy graph in one document
func (s *TopologyService) Snapshot() (*model.Topology, error) {
	servers, err := s.servers.List()
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	links, err := s.links.List()
	if err != nil {
		return nil, fmt.Errorf("list server connections: %w", err)
	}
	stacks, err := s.stacks.List(0)
	if err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}
	services, err := s.graph.ListServices()
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	conns, err := s.graph.ListConnections()
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	return &model.Topology{
		Servers:           nonNil(servers),
		ServerConnections: nonNil(links),
		Stacks:            nonNil(stacks),
		Services:          nonNil(services),
		Connections:       nonNil(conns),
	}, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
