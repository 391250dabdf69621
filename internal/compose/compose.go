// Package compose turns a docker-compose document into the normalized
// per-service records stored for a stack.
package compose

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the normalized view of a compose file.
type Document struct {
	// HasServices is false when the document has no top-level "services" key.
	HasServices bool
	// Services keeps the key order of the "services" mapping.
	Services []Service
}

// Names returns the service names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Services))
	for _, s := range d.Services {
		names = append(names, s.Name)
	}
	return names
}

// Service is one entry of the "services" mapping in canonical form.
type Service struct {
	Name        string
	Image       string
	Ports       []any
	Volumes     []any
	Networks    NameList
	DependsOn   NameList
	Environment EnvMap
}

// serviceSpec is the decode target for a single service definition.
// Unknown keys (build, command, healthcheck ...) are ignored.
type serviceSpec struct {
	Image       string   `yaml:"image"`
	Ports       []any    `yaml:"ports"`
	Volumes     []any    `yaml:"volumes"`
	Networks    NameList `yaml:"networks"`
	DependsOn   NameList `yaml:"depends_on"`
	Environment EnvMap   `yaml:"environment"`
}

// Parse reads a compose document. Syntax errors are reported with
// KindMalformedDocument; a document that parses but has an unexpected shape
// is reported with KindProcessing.
func Parse(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newError(KindEmptyInput, "no docker compose content provided", nil)
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, newError(KindMalformedDocument, "invalid YAML", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errMultipleDocuments
		}
		return nil, newError(KindMalformedDocument, "invalid YAML", err)
	}

	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, newError(KindProcessing, "compose document must be a mapping", nil)
	}

	servicesNode := lookup(top, "services")
	if servicesNode == nil {
		return &Document{}, nil
	}
	return parseServices(servicesNode)
}

func parseServices(node *yaml.Node) (*Document, error) {
	doc := &Document{HasServices: true}
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return nil, newError(KindProcessing, "'services' must be a mapping of service name to definition", nil)
	}

	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if keyNode.Kind != yaml.ScalarNode || name == "" {
			return nil, newError(KindProcessing, fmt.Sprintf("invalid service name at line %d", keyNode.Line), nil)
		}
		if _, dup := seen[name]; dup {
			return nil, newError(KindProcessing, fmt.Sprintf("service %q is defined more than once", name), nil)
		}
		seen[name] = struct{}{}

		svc, err := parseService(name, valNode)
		if err != nil {
			return nil, err
		}
		doc.Services = append(doc.Services, svc)
	}
	return doc, nil
}

func parseService(name string, node *yaml.Node) (Service, error) {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return Service{}, newError(KindProcessing, fmt.Sprintf("service %q must be a mapping", name), nil)
	}

	var spec serviceSpec
	if err := node.Decode(&spec); err != nil {
		return Service{}, newError(KindProcessing, fmt.Sprintf("service %q", name), err)
	}

	svc := Service{
		Name:        name,
		Image:       spec.Image,
		Ports:       jsonSafeList(spec.Ports),
		Volumes:     jsonSafeList(spec.Volumes),
		Networks:    spec.Networks,
		DependsOn:   spec.DependsOn,
		Environment: spec.Environment,
	}
	if svc.Ports == nil {
		svc.Ports = []any{}
	}
	if svc.Volumes == nil {
		svc.Volumes = []any{}
	}
	if svc.Networks == nil {
		svc.Networks = NameList{}
	}
	if svc.DependsOn == nil {
		svc.DependsOn = NameList{}
	}
	if svc.Environment == nil {
		svc.Environment = EnvMap{}
	}
	return svc, nil
}

// NameList holds a field compose accepts either as a list of names or as a
// mapping keyed by name (networks, depends_on). The mapping form collapses to
// its keys in document order.
type NameList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *NameList) UnmarshalYAML(node *yaml.Node) error {
	switch {
	case isNull(node):
		*l = nil
	case node.Kind == yaml.SequenceNode:
		out := make(NameList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list entries must be names", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
	case node.Kind == yaml.MappingNode:
		out := make(NameList, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			out = append(out, node.Content[i].Value)
		}
		*l = out
	default:
		return fmt.Errorf("line %d: expected a list or a mapping", node.Line)
	}
	return nil
}

// EnvMap is the canonical form of "environment". The list form
// ("KEY=VALUE" strings) is split on the first '='; an entry without '='
// maps to the empty string.
type EnvMap map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *EnvMap) UnmarshalYAML(node *yaml.Node) error {
	switch {
	case isNull(node):
		*m = nil
	case node.Kind == yaml.MappingNode:
		out := make(EnvMap, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: environment value for %q must be a scalar", val.Line, key.Value)
			}
			if isNull(val) {
				out[key.Value] = ""
				continue
			}
			out[key.Value] = val.Value
		}
		*m = out
	case node.Kind == yaml.SequenceNode:
		out := make(EnvMap, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return fmt.Errorf("line %d: environment entries must be KEY=VALUE strings", item.Line)
			}
			key, value := splitEnv(item.Value)
			if key == "" {
				return fmt.Errorf("line %d: environment entry %q has no variable name", item.Line, item.Value)
			}
			out[key] = value
		}
		*m = out
	default:
		return fmt.Errorf("line %d: environment must be a list or a mapping", node.Line)
	}
	return nil
}

func splitEnv(entry string) (string, string) {
	key, value, _ := strings.Cut(entry, "=")
	return strings.TrimSpace(key), value
}

// jsonSafeList rewrites mappings with non-string keys (e.g. "80: 8080" in a
// long-syntax entry) so that the list can be stored as JSON.
func jsonSafeList(items []any) []any {
	for i, item := range items {
		items[i] = jsonSafe(item)
	}
	return items
}

func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = jsonSafe(val)
		}
		return t
	case []any:
		return jsonSafeList(t)
	default:
		return v
	}
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// ErrorKind classifies an import failure.
type ErrorKind int

const (
	// KindEmptyInput means there was no document to parse.
	KindEmptyInput ErrorKind = iota + 1
	// KindMalformedDocument means the YAML itself is invalid.
	KindMalformedDocument
	// KindProcessing means the YAML is valid but not shaped like a compose file.
	KindProcessing
)

// Key returns the i18n error key for the kind.
func (k ErrorKind) Key() string {
	switch k {
	case KindEmptyInput:
		return "error.compose_empty"
	case KindMalformedDocument:
		return "error.compose_malformed"
	default:
		return "error.compose_processing"
	}
}

var errMultipleDocuments = errors.New("expected a single document in the stream")

// Error is returned by Parse.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a compose *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
