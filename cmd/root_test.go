package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func initWithConfigFile(t *testing.T, path string) error {
	t.Helper()
	viper.Reset()
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() {
		cfgFile = prev
		viper.Reset()
	})
	return initConfig()
}

func TestInitConfig_ExplicitMissingFileFails(t *testing.T) {
	err := initWithConfigFile(t, filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("initConfig succeeded with an explicit config file that does not exist")
	}
}

func TestInitConfig_ExplicitMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devfleet.yaml")
	if err := os.WriteFile(path, []byte("workspaces: [:::"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := initWithConfigFile(t, path)
	if err == nil {
		t.Fatal("initConfig succeeded with a malformed explicit config file")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error %q does not name the config file", err)
	}
}

func TestInitConfig_NoExplicitFileUsesDefaults(t *testing.T) {
	if err := initWithConfigFile(t, ""); err != nil {
		t.Fatalf("initConfig without an explicit config file: %v", err)
	}
	table, err := conf.Table()
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	if _, err := table.Lookup("main"); err != nil {
		t.Fatalf("built-in table missing main: %v", err)
	}
}

func TestInitConfig_ExplicitTableOverrideIsLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devfleet.yaml")
	override := `
workspaces:
  - name: solo
    match: ["-solo"]
    web_port: 3900
    api_port: 3901
    db_port: 5440
    tool_port: 4900
    db_container: wasp-dev-db-solo
    db_name: opensaas
`
	if err := os.WriteFile(path, []byte(override), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := initWithConfigFile(t, path); err != nil {
		t.Fatalf("initConfig: %v", err)
	}
	table, err := conf.Table()
	if err != nil {
		t.Fatalf("override table: %v", err)
	}
	if _, err := table.Lookup("solo"); err != nil {
		t.Fatalf("override entry missing: %v", err)
	}
	if _, err := table.Lookup("main"); err == nil {
		t.Fatal("built-in entry still resolvable after wholesale override")
	}
}
