package app

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "depscope" {
		t.Errorf("expected Use to be 'depscope', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	commands := RootCmd.Commands()

	expectedCommands := []string{"scan", "bar", "dot", "details <package>", "watch", "snapshots"}
	foundCommands := make(map[string]bool)

	for _, cmd := range commands {
		foundCommands[cmd.Use] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"manager", "db", "debug"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestCachedFlagOnRenderCommands(t *testing.T) {
	for _, cmd := range []*cobra.Command{barCmd, dotCmd, detailsCmd} {
		if cmd.Flags().Lookup("cached") == nil {
			t.Errorf("expected --cached flag on %s", cmd.Name())
		}
	}
	if scanCmd.Flags().Lookup("cached") != nil {
		t.Error("scan always collects fresh data and should not have --cached")
	}
}

func TestGetDBPathCustom(t *testing.T) {
	old := dbPath
	defer func() { dbPath = old }()

	dbPath = filepath.Join(t.TempDir(), "custom.db")
	got, err := getDBPath()
	if err != nil {
		t.Fatalf("getDBPath failed: %v", err)
	}
	if got != dbPath {
		t.Errorf("getDBPath = %s, want %s", got, dbPath)
	}
}

func TestGetDBPathDefault(t *testing.T) {
	old := dbPath
	defer func() { dbPath = old }()

	dbPath = ""
	got, err := getDBPath()
	if err != nil {
		t.Fatalf("getDBPath failed: %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join(".depscope", "depscope.db")) {
		t.Errorf("unexpected default path: %s", got)
	}
}

func TestResolveCollectorHonorsFlag(t *testing.T) {
	old := managerName
	defer func() { managerName = old }()

	managerName = "flatpak"
	c, err := resolveCollector()
	if err != nil {
		t.Fatalf("resolveCollector failed: %v", err)
	}
	if c.Name() != "flatpak" {
		t.Errorf("Name = %s, want flatpak", c.Name())
	}

	managerName = "pacman"
	if _, err := resolveCollector(); err == nil {
		t.Error("expected error for unsupported manager")
	}
}
