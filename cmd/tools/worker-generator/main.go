// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"lunch-roulette/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name         string
	PackageName  string
	TaskType     string
	Description  string
	InputFields  []Field
	OutputFields []Field
	UsesModels   bool
}

// Field is one struct field derived from a schema property.
type Field struct {
	Name    string
	GoType  string
	JSONTag string
}

const placeRef = "#/definitions/place"

// schemaFields turns the properties of an object schema into struct fields,
// sorted by property name.
func schemaFields(schema map[string]interface{}) ([]Field, bool) {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	usesModels := false
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		goType := goTypeFromSchema(details)
		if strings.Contains(goType, "models.") {
			usesModels = true
		}
		fields = append(fields, Field{
			Name:    upperFirst(name),
			GoType:  goType,
			JSONTag: fmt.Sprintf("`json:\"%s\"`", name),
		})
	}
	return fields, usesModels
}

// goTypeFromSchema maps a JSON schema property to a Go type. Place
// references become models.PlaceRecord.
func goTypeFromSchema(prop map[string]interface{}) string {
	if ref, _ := prop["$ref"].(string); ref == placeRef {
		return "models.PlaceRecord"
	}
	switch prop["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		items, _ := prop["items"].(map[string]interface{})
		if items == nil {
			return "[]interface{}"
		}
		return "[]" + goTypeFromSchema(items)
	default:
		return "interface{}"
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const configTemplate = `// {{ .Dir }}/config.go
package {{ .PackageName }}

import (
	"time"

	"lunch-roulette/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	return &Config{Timeout: config.GetDuration(wc.Timeout)}
}
`

const modelsTemplate = `// {{ .Dir }}/models.go
package {{ .PackageName }}
{{ if .UsesModels }}
import "lunch-roulette/internal/models"
{{ end }}
type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}
{{- end }}
}
`

const handlerTemplate = `// {{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"

	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/workers/jobs"
	"lunch-roulette/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "{{ .TaskType }}"

// Handler runs the {{ .Name }} activity: {{ .Description }}
type Handler struct {
	config *Config
	runner *jobs.Runner
	logger logger.Logger
}

func NewHandler(cfg *Config, reg *registry.ActivityRegistry, log logger.Logger, obs *observability.Observability) *Handler {
	runner := jobs.NewRunner(TaskType, reg, cfg.Timeout, log, obs)
	return &Handler{config: cfg, runner: runner, logger: runner.Logger()}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	jobs.Run(h.runner, client, job, h.execute)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	return &Output{}, nil
}
`

const testTemplate = `// {{ .Dir }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"lunch-roulette/internal/common/config"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/pkg/registry"

	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return LoadConfig(config.WorkerConfig{Enabled: true})
}

func TestHandler_Execute(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	h := NewHandler(createTestConfig(), reg, logger.NewTestLogger(t), nil)

	out, err := h.execute(context.Background(), &Input{})
	require.NoError(t, err)
	require.NotNil(t, out)
}
`

var templates = []struct {
	file string
	body string
}{
	{"config.go", configTemplate},
	{"models.go", modelsTemplate},
	{"handler.go", handlerTemplate},
	{"handler_test.go", testTemplate},
}

// render executes every template for the activity and returns the file
// contents keyed by file name.
func render(a *registry.Activity, dir string) (map[string][]byte, error) {
	in, inModels := schemaFields(a.InputSchema)
	out, outModels := schemaFields(a.OutputSchema)
	data := struct {
		WorkerData
		Dir string
	}{
		WorkerData: WorkerData{
			Name:         a.DisplayName,
			PackageName:  strings.ReplaceAll(a.ID, "-", ""),
			TaskType:     a.TaskType,
			Description:  a.Description,
			InputFields:  in,
			OutputFields: out,
			UsesModels:   inModels || outModels,
		},
		Dir: filepath.ToSlash(dir),
	}

	files := make(map[string][]byte, len(templates))
	for _, t := range templates {
		tmpl, err := template.New(t.file).Parse(t.body)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", t.file, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", t.file, err)
		}
		files[t.file] = buf.Bytes()
	}
	return files, nil
}

// writeFiles refuses to overwrite an existing worker.
func writeFiles(dir string, files map[string][]byte) error {
	for name := range files {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return fmt.Errorf("%s already exists", filepath.Join(dir, name))
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func main() {
	activity := flag.String("activity", "", "Activity ID from registry (e.g., spin-roulette)")
	outputDir := flag.String("output", "internal/workers", "Root directory for generated workers")
	registryPath := flag.String("registry", "", "Path to a registry file (default: compiled-in registry)")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>]")
		os.Exit(1)
	}

	var reg *registry.ActivityRegistry
	var err error
	if *registryPath == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.LoadRegistry(*registryPath)
	}
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}

	var found *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *activity {
			found = &reg.Activities[i]
			break
		}
	}
	if found == nil {
		fmt.Printf("Activity '%s' not found in registry\n", *activity)
		os.Exit(1)
	}

	dir := filepath.Join(*outputDir, strings.ToLower(found.Category), found.ID)
	files, err := render(found, dir)
	if err == nil {
		err = writeFiles(dir, files)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Worker scaffold generated at %s\n", dir)
	fmt.Println("Next: run gofmt, implement execute, then register the worker in cmd/roulette-server/main.go and configs/config.yaml.")
}
