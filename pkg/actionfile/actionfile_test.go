package actionfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSingleUnitAction(t *testing.T) {
	src := `
action "migrate" {
  path    = "units/migrate"
  args    = ["--apply", "--dry-run=false"]
  forever = false
}
`
	actions, err := Parse([]byte(src), "test.hcl")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}

	action := actions[0]
	if action.Name != "migrate" {
		t.Errorf("expected name migrate, got %q", action.Name)
	}
	if action.Path != "units/migrate" {
		t.Errorf("expected path units/migrate, got %q", action.Path)
	}
	if len(action.Args) != 2 || action.Args[0] != "--apply" {
		t.Errorf("expected args, got %v", action.Args)
	}
	if len(action.Parallelism) != 0 {
		t.Errorf("expected no group, got %v", action.Parallelism)
	}
}

func TestParseGroupAction(t *testing.T) {
	src := `
action "services" {
  unit {
    path    = "units/api"
    forever = true
  }
  unit {
    path = "units/worker"
    args = ["--queue", "default"]
  }
}
`
	actions, err := Parse([]byte(src), "test.hcl")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}

	group := actions[0].Parallelism
	if len(group) != 2 {
		t.Fatalf("expected 2 group units, got %d", len(group))
	}
	if group[0].Path != "units/api" || !group[0].Forever {
		t.Errorf("unexpected first unit: %+v", group[0])
	}
	if group[1].Path != "units/worker" || len(group[1].Args) != 2 {
		t.Errorf("unexpected second unit: %+v", group[1])
	}
}

func TestParsePreservesDeclarationOrder(t *testing.T) {
	src := `
action "third" { path = "units/c" }
action "first" { path = "units/a" }
action "second" { path = "units/b" }
`
	actions, err := Parse([]byte(src), "test.hcl")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := []string{"third", "first", "second"}
	if len(actions) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(actions))
	}
	for i, name := range want {
		if actions[i].Name != name {
			t.Errorf("actions[%d].Name = %q, want %q", i, actions[i].Name, name)
		}
	}
}

func TestParseEmptyActionIsAllowed(t *testing.T) {
	actions, err := Parse([]byte(`action "placeholder" {}`), "test.hcl")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(actions) != 1 || actions[0].Path != "" || len(actions[0].Parallelism) != 0 {
		t.Errorf("expected an empty action, got %+v", actions)
	}
}

func TestParseRejectsMixedAction(t *testing.T) {
	src := `
action "confused" {
  path = "units/a"
  unit {
    path = "units/b"
  }
}
`
	_, err := Parse([]byte(src), "test.hcl")
	if err == nil || !strings.Contains(err.Error(), "both path and unit blocks") {
		t.Errorf("expected mixed action error, got %v", err)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	src := `
action "same" { path = "units/a" }
action "same" { path = "units/b" }
`
	_, err := Parse([]byte(src), "test.hcl")
	if err == nil || !strings.Contains(err.Error(), "duplicate action") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestParseRejectsUnitWithoutPath(t *testing.T) {
	src := `
action "group" {
  unit {
    path = ""
  }
}
`
	_, err := Parse([]byte(src), "test.hcl")
	if err == nil || !strings.Contains(err.Error(), "without a path") {
		t.Errorf("expected missing unit path error, got %v", err)
	}
}

func TestParseRejectsMalformedHCL(t *testing.T) {
	_, err := Parse([]byte(`action "broken" {`), "test.hcl")
	if err == nil {
		t.Error("expected parse error for malformed input")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.hcl")
	src := `
action "hello" {
  path = "units/echo"
  args = ["hello"]
}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write actions file: %v", err)
	}

	actions, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(actions) != 1 || actions[0].Name != "hello" {
		t.Errorf("unexpected actions: %+v", actions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
