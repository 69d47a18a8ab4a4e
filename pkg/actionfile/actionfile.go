// Package actionfile loads runner action sequences from HCL files. Each
// action block names either a single unit (path/args/forever attributes) or a
// group (nested unit blocks); block order in the file is execution order.
//
//	action "migrate" {
//	  path = "units/migrate"
//	  args = ["--apply"]
//	}
//
//	action "services" {
//	  unit {
//	    path    = "units/api"
//	    forever = true
//	  }
//	  unit {
//	    path = "units/worker"
//	  }
//	}
package actionfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/richhh7g/node-runner/pkg/runner"
)

// hclActionsFile represents the top-level structure of an actions file for
// decoding.
type hclActionsFile struct {
	Actions []*hclAction `hcl:"action,block"`
}

type hclAction struct {
	Name    string     `hcl:"name,label"`
	Path    string     `hcl:"path,optional"`
	Args    []string   `hcl:"args,optional"`
	Forever bool       `hcl:"forever,optional"`
	Units   []*hclUnit `hcl:"unit,block"`
}

type hclUnit struct {
	Path    string   `hcl:"path"`
	Args    []string `hcl:"args,optional"`
	Forever bool     `hcl:"forever,optional"`
}

// Load parses the actions file at path.
func Load(path string) (runner.Actions, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse actions file %s: %w", path, diags)
	}

	return decode(path, file)
}

// Parse parses actions from src. filename is used in diagnostics only.
func Parse(src []byte, filename string) (runner.Actions, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse actions: %w", diags)
	}

	return decode(filename, file)
}

func decode(filename string, file *hcl.File) (runner.Actions, error) {
	var parsed hclActionsFile
	diags := gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode actions file %s: %w", filename, diags)
	}

	actions := make(runner.Actions, 0, len(parsed.Actions))
	seen := make(map[string]struct{}, len(parsed.Actions))
	for _, block := range parsed.Actions {
		if block.Name == "" {
			return nil, fmt.Errorf("%s: action block requires a non-empty label", filename)
		}
		if _, dup := seen[block.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate action %q", filename, block.Name)
		}
		seen[block.Name] = struct{}{}

		if len(block.Units) > 0 && block.Path != "" {
			return nil, fmt.Errorf("%s: action %q declares both path and unit blocks", filename, block.Name)
		}

		action := runner.Action{
			Name:    block.Name,
			Path:    block.Path,
			Args:    block.Args,
			Forever: block.Forever,
		}
		for _, unit := range block.Units {
			if unit.Path == "" {
				return nil, fmt.Errorf("%s: action %q has a unit block without a path", filename, block.Name)
			}
			action.Parallelism = append(action.Parallelism, runner.Options{
				Path:    unit.Path,
				Args:    unit.Args,
				Forever: unit.Forever,
			})
		}
		actions = append(actions, action)
	}

	return actions, nil
}
