package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "folio-test-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	buildFolio(tmpDir)

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// TestWorkspaceLifecycle drives a collection through the binary and checks
// the data survives between processes.
func TestWorkspaceLifecycle(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFolio("init")

	if _, err := os.Stat(filepath.Join(env.DataDir, types.DatabaseFileName)); err != nil {
		t.Fatalf("database not created: %v", err)
	}

	col := ParseJSON[types.Collection](t, env.MustRunFolio("--json", "collection", "create", "Tasks").Stdout)
	prop := ParseJSON[types.Property](t, env.MustRunFolio("--json", "property", "create", fmt.Sprint(col.ID), "Due", "date").Stdout)

	dates := map[string]string{"late": "2026-01-20", "early": "2026-01-05", "none": ""}
	for _, title := range []string{"late", "early", "none"} {
		pg := ParseJSON[types.Page](t, env.MustRunFolio("--json", "page", "create", fmt.Sprint(col.ID), title).Stdout)
		if dates[title] != "" {
			env.MustRunFolio("value", "set", fmt.Sprint(pg.ID), fmt.Sprint(prop.ID), dates[title])
		}
	}

	env.MustRunFolio("sort", "set", fmt.Sprint(col.ID), fmt.Sprint(prop.ID), "desc")
	env.MustRunFolio("filter", "add", fmt.Sprint(prop.ID), "in_range", "--start", "2026-01-01", "--end", "2026-01-31")

	pages := ParseJSON[[]types.Page](t, env.MustRunFolio("--json", "list", fmt.Sprint(col.ID)).Stdout)
	var titles []string
	for _, pg := range pages {
		titles = append(titles, pg.Title)
	}
	if got, want := strings.Join(titles, ","), "late,early"; got != want {
		t.Errorf("page list = %s, want %s", got, want)
	}
}

func TestExitCodes(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFolio("init")

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"version", []string{"version"}, 0},
		{"missing collection", []string{"collection", "get", "42"}, 1},
		{"bad id", []string{"page", "get", "x"}, 1},
		{"unknown type", []string{"property", "create", "1", "X", "blob"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := env.RunFolio(tt.args...)
			if result.ExitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", result.ExitCode, tt.wantCode, result.Stderr)
			}
		})
	}

	if err := os.WriteFile(filepath.Join(env.Config, "config.yaml"), []byte("backend: mongo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := env.RunFolio("collection", "list"); result.ExitCode != 2 {
		t.Errorf("unknown backend exit code = %d, want 2", result.ExitCode)
	}
}
