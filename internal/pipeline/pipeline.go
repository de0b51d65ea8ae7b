// Package pipeline implements the declarative script form of a session:
// serialization of live session state to YAML, structural validation, and
// non-interactive execution of a script against a fresh session.
package pipeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input loads one file under an alias.
type Input struct {
	Path  string `yaml:"path"`
	Alias string `yaml:"alias,omitempty"`
	// Sheet targets one sheet of a workbook, so multi-sheet files can be
	// aliased unambiguously. Absent for single-table formats.
	Sheet string `yaml:"sheet,omitempty"`
}

// Task runs one query; its result is implicitly staged under Name.
type Task struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
}

// Export is the destination for the consolidated report.
type Export struct {
	Path string `yaml:"path"`
}

// Pipeline is the persisted, serializable projection of a session. It
// holds no live references.
type Pipeline struct {
	Inputs []Input `yaml:"inputs,omitempty"`
	Tasks  []Task  `yaml:"tasks,omitempty"`
	Export *Export `yaml:"export,omitempty"`
}

// Parse decodes a script document. Unknown top-level keys are ignored for
// forward compatibility; structural problems are reported by Validate, not
// here.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &ValidationError{Issues: []string{fmt.Sprintf("malformed script: %v", err)}}
	}
	return &p, nil
}

// LoadFile reads and decodes a script file.
func LoadFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return Parse(data)
}

// Encode serializes the pipeline to YAML, keys in declaration order.
func (p *Pipeline) Encode() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline: %w", err)
	}
	return data, nil
}

// WriteFile serializes the pipeline to a script file.
func (p *Pipeline) WriteFile(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write script %s: %w", path, err)
	}
	return nil
}

// ValidationError aggregates every structural problem found in a script.
// It is fatal before anything executes.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid pipeline: " + e.Issues[0]
	}
	return fmt.Sprintf("invalid pipeline: %d problems: %s",
		len(e.Issues), strings.Join(e.Issues, "; "))
}

// Validate checks the pipeline structurally and reports all problems
// together rather than stopping at the first.
func (p *Pipeline) Validate() error {
	var issues []string

	if len(p.Inputs) == 0 && len(p.Tasks) == 0 {
		issues = append(issues, "pipeline is empty: nothing to load or run")
	}
	if len(p.Tasks) > 0 && len(p.Inputs) == 0 {
		issues = append(issues, "tasks are declared but no inputs are")
	}

	seenAliases := make(map[string]int)
	for i, in := range p.Inputs {
		if in.Path == "" {
			issues = append(issues, fmt.Sprintf("input %d: path is required", i+1))
		}
		if in.Alias != "" {
			key := strings.ToLower(in.Alias)
			if prev, ok := seenAliases[key]; ok {
				issues = append(issues,
					fmt.Sprintf("input %d: alias %q already used by input %d", i+1, in.Alias, prev))
			} else {
				seenAliases[key] = i + 1
			}
		}
	}

	seenTasks := make(map[string]int)
	for i, task := range p.Tasks {
		if task.Name == "" {
			issues = append(issues, fmt.Sprintf("task %d: name is required", i+1))
		}
		if task.SQL == "" {
			issues = append(issues, fmt.Sprintf("task %d: sql is required", i+1))
		}
		if task.Name != "" {
			if prev, ok := seenTasks[task.Name]; ok {
				issues = append(issues,
					fmt.Sprintf("task %d: name %q already used by task %d", i+1, task.Name, prev))
			} else {
				seenTasks[task.Name] = i + 1
			}
		}
	}

	if p.Export != nil && p.Export.Path == "" {
		issues = append(issues, "export: path is required when export is present")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
