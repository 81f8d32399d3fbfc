// Package integration provides CLI integration tests for tether.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// tetherBin is the path to the built tether binary.
	tetherBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetTetherBin sets the path to the tether binary (called from TestMain).
func SetTetherBin(path string) {
	tetherBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment: its own local config
// directory, global config directory, and sqlite data directory, so tests
// never touch the developer's real ~/.tether.
type TestEnv struct {
	t         *testing.T
	TempDir   string
	ConfigDir string
	GlobalDir string
	DataDir   string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build tether: %v", buildErr)
	}
	if tetherBin == "" {
		t.Fatal("tether binary not built (tetherBin is empty)")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:         t,
		TempDir:   tempDir,
		ConfigDir: filepath.Join(tempDir, "local"),
		GlobalDir: filepath.Join(tempDir, "global"),
		DataDir:   filepath.Join(tempDir, "data"),
	}

	for _, dir := range []string{env.ConfigDir, env.GlobalDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return env
}

// CmdResult holds the result of a tether command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunTether executes the tether CLI with the given arguments inside the
// isolated environment. Returns stdout, stderr, and exit code.
func (e *TestEnv) RunTether(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{
		"--config-dir", e.ConfigDir,
		"--data-dir", e.DataDir,
	}, args...)
	cmd := exec.Command(tetherBin, allArgs...)
	cmd.Env = append(os.Environ(), "TETHER_CONFIG_DIR="+e.GlobalDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run tether: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunTether executes the tether CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunTether(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunTether(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("tether %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// Entity mirrors the CLI's JSON entity output.
type Entity struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
	Assignee    string            `json:"assignee"`
	Status      string            `json:"status"`
}

// Link mirrors the CLI's JSON link output.
type Link struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
}

// TreeNode mirrors the CLI's JSON tree output.
type TreeNode struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Status   string      `json:"status"`
	LinkType string      `json:"link_type"`
	Cycle    bool        `json:"cycle"`
	Children []*TreeNode `json:"children"`
}

// MustCreate creates an entity through the CLI and returns it.
func (e *TestEnv) MustCreate(title string, extra ...string) Entity {
	e.t.Helper()
	args := append([]string{"create", title, "--json"}, extra...)
	result := e.MustRunTether(args...)
	return ParseJSON[Entity](e.t, result.Stdout)
}

// MustLink adds a link through the CLI.
func (e *TestEnv) MustLink(source, target, typ string) {
	e.t.Helper()
	e.MustRunTether("link", "add", source, target, "--type", typ)
}
