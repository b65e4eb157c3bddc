package workspace

import (
	"errors"
	"testing"
)

func TestDefaultTable_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("built-in table invalid: %v", err)
	}
}

func TestDefaultTable_Disjoint(t *testing.T) {
	// The whole point of the static table: no two workspaces ever share a
	// port or a container name.
	seenPorts := map[int]Name{}
	seenContainers := map[string]Name{}
	for _, ws := range Default().All() {
		for _, p := range append(ws.Ports(), ws.DBPort) {
			if prev, ok := seenPorts[p]; ok {
				t.Errorf("port %d shared by %q and %q", p, prev, ws.Name)
			}
			seenPorts[p] = ws.Name
		}
		if prev, ok := seenContainers[ws.DBContainer]; ok {
			t.Errorf("container %q shared by %q and %q", ws.DBContainer, prev, ws.Name)
		}
		seenContainers[ws.DBContainer] = ws.Name
	}
}

func TestResolve(t *testing.T) {
	table := Default()
	cases := []struct {
		path string
		want Name
	}{
		{"/home/alice/src/open-saas", "main"},
		{"/home/alice/src/OpenSaaS", "main"},
		{"/home/alice/src/OpenSaaS-Dev1", "dev1"},
		{"/home/bob/worktrees/myapp-dev2", "dev2"},
		{"/srv/agents/OpenSaaS-Dev3/", "dev3"},
	}
	for _, c := range cases {
		ws, err := table.Resolve(c.path)
		if err != nil {
			t.Errorf("Resolve(%q): %v", c.path, err)
			continue
		}
		if ws.Name != c.want {
			t.Errorf("Resolve(%q) = %q, want %q", c.path, ws.Name, c.want)
		}
	}
}

func TestResolve_UnknownFailsClosed(t *testing.T) {
	_, err := Default().Resolve("/path/to/unrecognized-dir")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Default().Lookup("dev99")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestNewTable_RejectsDuplicatePort(t *testing.T) {
	_, err := NewTable([]*Workspace{
		{Name: "a", Match: []string{"-a"}, WebPort: 3000, APIPort: 3001, DBPort: 5432, ToolPort: 4000, DBContainer: "db-a", DBName: "a"},
		{Name: "b", Match: []string{"-b"}, WebPort: 3100, APIPort: 3000, DBPort: 5433, ToolPort: 4100, DBContainer: "db-b", DBName: "b"},
	})
	if err == nil {
		t.Fatal("expected duplicate-port validation error")
	}
}

func TestNewTable_RejectsDuplicateContainer(t *testing.T) {
	_, err := NewTable([]*Workspace{
		{Name: "a", Match: []string{"-a"}, WebPort: 3000, APIPort: 3001, DBPort: 5432, ToolPort: 4000, DBContainer: "db", DBName: "a"},
		{Name: "b", Match: []string{"-b"}, WebPort: 3100, APIPort: 3101, DBPort: 5433, ToolPort: 4100, DBContainer: "db", DBName: "b"},
	})
	if err == nil {
		t.Fatal("expected duplicate-container validation error")
	}
}

func TestNewTable_RejectsPortOutOfRange(t *testing.T) {
	_, err := NewTable([]*Workspace{
		{Name: "a", Match: []string{"-a"}, WebPort: 0, APIPort: 3001, DBPort: 5432, ToolPort: 4000, DBContainer: "db-a", DBName: "a"},
	})
	if err == nil {
		t.Fatal("expected out-of-range validation error")
	}
}
