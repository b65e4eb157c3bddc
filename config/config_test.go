package config

import (
	"strings"
	"testing"

	"github.com/opensaas/devfleet/workspace"
)

func TestDefaultConfig_TableIsValid(t *testing.T) {
	table, err := DefaultConfig().Table()
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	if len(table.All()) == 0 {
		t.Fatal("default table is empty")
	}
}

func TestDefaultConfig_Durations(t *testing.T) {
	c := DefaultConfig()
	if c.DBStartTimeout() <= 0 {
		t.Error("DB start timeout must be positive")
	}
	if c.DBPollInterval() <= 0 {
		t.Error("DB poll interval must be positive")
	}
	if c.ReclaimGrace() <= 0 || c.ReclaimSettle() <= 0 {
		t.Error("reclaim windows must be positive")
	}
	if c.ReclaimRetries < 1 {
		t.Error("at least one reclaim pass required")
	}
}

func TestTable_OverrideReplacesDefault(t *testing.T) {
	c := DefaultConfig()
	c.Workspaces = []*workspace.Workspace{
		{Name: "solo", Match: []string{"-solo"}, WebPort: 3900, APIPort: 3901, DBPort: 5439, ToolPort: 4900, DBContainer: "db-solo", DBName: "solo"},
	}
	table, err := c.Table()
	if err != nil {
		t.Fatalf("override table: %v", err)
	}
	if len(table.All()) != 1 || table.All()[0].Name != "solo" {
		t.Errorf("override not applied: %+v", table.All())
	}
}

func TestTable_OverrideStillValidated(t *testing.T) {
	c := DefaultConfig()
	c.Workspaces = []*workspace.Workspace{
		{Name: "a", Match: []string{"-a"}, WebPort: 3900, APIPort: 3900, DBPort: 5439, ToolPort: 4900, DBContainer: "db-a", DBName: "a"},
	}
	if _, err := c.Table(); err == nil {
		t.Fatal("expected validation failure for duplicate port in override")
	}
}

func TestWorkspacePaths(t *testing.T) {
	c := DefaultConfig()
	c.RunDir = "/tmp/devfleet-test/run"
	c.LogDir = "/tmp/devfleet-test/log"

	id := workspace.Name("dev1")
	for path, fragment := range map[string]string{
		c.WorkspaceLock(id): "run/dev1/workspace.lock",
		c.WebPIDFile(id):    "run/dev1/web.pid",
		c.APIPIDFile(id):    "run/dev1/api.pid",
		c.WebLogFile(id):    "log/dev1/web.log",
		c.APILogFile(id):    "log/dev1/api.log",
	} {
		if !strings.HasSuffix(path, fragment) {
			t.Errorf("path %q should end with %q", path, fragment)
		}
	}
}
