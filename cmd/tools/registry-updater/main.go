// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"lunch-roulette/internal/common/config"
	"lunch-roulette/internal/common/validation"
	"lunch-roulette/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/activities.json"

func main() {
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check-config", flag.ExitOnError)

	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries, description)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", "", "Path to registry file (default: compiled-in registry)")
	listPath := listCmd.String("path", "", "Path to registry file (default: compiled-in registry)")
	checkPath := checkCmd.String("path", "", "Path to registry file (default: compiled-in registry)")
	configPath := checkCmd.String("config", "configs/config.yaml", "Path to service config")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateActivity(*updatePath, *idUpdate, *field, *value)
		if err == nil {
			fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		if reg, err = load(*validatePath); err == nil {
			if err = validateRegistry(reg); err == nil {
				fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
			}
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		if reg, err = load(*listPath); err == nil {
			list(reg)
		}

	case "check-config":
		checkCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		if reg, err = load(*checkPath); err == nil {
			var cfg *config.Config
			if cfg, err = config.LoadFromFile(*configPath); err == nil {
				problems := checkWorkers(reg, cfg)
				for _, p := range problems {
					fmt.Println(p)
				}
				if len(problems) > 0 {
					err = fmt.Errorf("%d worker configuration problems", len(problems))
				} else {
					fmt.Println("Every activity has a worker configuration.")
				}
			}
		}

	case "help":
		help()
		return
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func load(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

// validateRegistry runs the structural checks and compiles every schema.
func validateRegistry(reg *registry.ActivityRegistry) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	for _, a := range reg.Activities {
		if err := validation.CompileSchema(a.InputSchema); err != nil {
			return fmt.Errorf("activity %s input schema: %w", a.ID, err)
		}
		if err := validation.CompileSchema(a.OutputSchema); err != nil {
			return fmt.Errorf("activity %s output schema: %w", a.ID, err)
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %s timeout: %w", a.ID, err)
			}
		}
	}
	return nil
}

// checkWorkers reports activities without a usable worker section and
// worker sections that no activity uses.
func checkWorkers(reg *registry.ActivityRegistry, cfg *config.Config) []string {
	var problems []string
	known := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		known[a.TaskType] = true
		wc, ok := cfg.Workers[a.TaskType]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing worker config for %s", a.TaskType))
		case !wc.Enabled:
			problems = append(problems, fmt.Sprintf("worker %s is disabled", a.TaskType))
		case config.GetDuration(wc.Timeout) < a.TimeoutDuration(0):
			problems = append(problems, fmt.Sprintf("worker %s job timeout %s is shorter than the activity timeout %s",
				a.TaskType, config.GetDuration(wc.Timeout), a.Timeout))
		}
	}
	for taskType := range cfg.Workers {
		if !known[taskType] {
			problems = append(problems, fmt.Sprintf("worker config %s has no registered activity", taskType))
		}
	}
	sort.Strings(problems)
	return problems
}

func list(reg *registry.ActivityRegistry) {
	fmt.Printf("Registry %s (updated %s)\n", reg.Version, reg.LastUpdated)
	for _, a := range reg.Activities {
		fmt.Printf("  %-24s %-10s timeout=%-4s retries=%d errors=%v\n",
			a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries, a.ErrorCodes)
	}
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := applyUpdate(reg, id, field, value); err != nil {
		return err
	}
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func applyUpdate(reg *registry.ActivityRegistry, id, field, value string) error {
	for i := range reg.Activities {
		a := &reg.Activities[i]
		if a.ID != id {
			continue
		}
		switch field {
		case "status":
			a.ImplementationStatus = value
		case "version":
			a.Version = value
		case "description":
			a.Description = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			a.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			a.Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("activity with ID %s not found", id)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  list          List the registered recommendation activities
  validate      Validate the registry and compile every schema
  check-config  Compare the registry with the worker sections of a config file
  update        Update an existing activity's field
  help          Show this help message

Examples:
  registry-updater validate
  registry-updater check-config -config configs/config.yaml
  registry-updater update -id spin-roulette -field timeout -value 3s

Use 'registry-updater <command> -h' for more information about a command.
`)
}
