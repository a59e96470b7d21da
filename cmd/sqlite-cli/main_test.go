// Package main provides tests for the sqlite-cli command.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sidekick-universe/sidekick/internal/cli"
	"github.com/sidekick-universe/sidekick/internal/cli/config"
	"github.com/sidekick-universe/sidekick/internal/testutil"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := executeRoot(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "sqlite-cli v"+cli.Version) {
		t.Errorf("version output should contain the version, got: %s", output)
	}
}

func TestHelpWithoutDatabase(t *testing.T) {
	output, err := executeRoot(t)
	if err != nil {
		t.Errorf("root command error = %v", err)
	}

	expectedCommands := []string{"query", "schema", "tables", "create", "example", "discover", "browse"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestTablesWithConfigFile(t *testing.T) {
	db := testutil.SampleDatabase(t)
	cfgPath := filepath.Join(t.TempDir(), "sidekick.yaml")
	if err := os.WriteFile(cfgPath, []byte("output: text\nformat: json\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	output, err := executeRoot(t, "--config", cfgPath, "tables", db)
	if err != nil {
		t.Fatalf("tables command error = %v", err)
	}
	for _, table := range []string{"users", "orders"} {
		if !strings.Contains(output, table) {
			t.Errorf("tables output should contain '%s', got: %s", table, output)
		}
	}
}

func TestQueryCommand(t *testing.T) {
	db := testutil.SampleDatabase(t)

	output, err := executeRoot(t, "--format", "csv", "query", db, "SELECT name FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}
	for _, name := range []string{"alice", "bob", "carol"} {
		if !strings.Contains(output, name) {
			t.Errorf("query output should contain '%s', got: %s", name, output)
		}
	}
}

func TestInvalidFormat(t *testing.T) {
	db := testutil.SampleDatabase(t)

	_, err := executeRoot(t, "--format", "xml", "tables", db)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "format") {
		t.Errorf("error should mention format, got: %v", err)
	}
}
