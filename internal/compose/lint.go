package compose

import (
	"context"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
)

// LintResult reports whether a document is a valid compose project.
type LintResult struct {
	Valid    bool     `json:"valid"`
	Project  string   `json:"project"`
	Services []string `json:"services"`
	Error    string   `json:"error,omitempty"`
}

// Lint validates text against the compose specification. Unlike Parse it
// interpolates variables, resolves extends/anchors and applies the schema,
// so it catches mistakes Parse lets through. Missing variables resolve to
// empty strings; nothing on disk is read.
func Lint(ctx context.Context, projectName, text string) LintResult {
	name := loader.NormalizeProjectName(projectName)
	if name == "" {
		name = "stack"
	}
	result := LintResult{Project: name, Services: []string{}}

	if strings.TrimSpace(text) == "" {
		result.Error = "no docker compose content provided"
		return result
	}

	details := composetypes.ConfigDetails{
		WorkingDir:  ".",
		ConfigFiles: []composetypes.ConfigFile{{Filename: "docker-compose.yml", Content: []byte(text)}},
		Environment: composetypes.Mapping{},
	}
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(name, true)
		o.ResolvePaths = false
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Valid = true
	result.Services = project.ServiceNames()
	return result
}
