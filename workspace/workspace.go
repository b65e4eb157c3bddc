package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknown is returned when a path or name has no entry in the allocation
// table. The orchestrator must fail closed here: silently falling back to a
// default bundle would collide with another workspace's ports.
var ErrUnknown = errors.New("unknown workspace")

// Name identifies one working copy (git worktree) of the project.
type Name string

// Workspace is the resource bundle allocated to one working copy. The table
// is static, reviewed configuration — every port and container name across
// all entries must be globally unique, and reviewers can see the whole
// allocation at once.
type Workspace struct {
	// Name is the workspace identity, e.g. "dev1".
	Name Name `json:"name" mapstructure:"name"`
	// Match lists terminal path-segment suffixes that resolve to this
	// workspace, e.g. "-Dev1". Matching is case-insensitive.
	Match []string `json:"match" mapstructure:"match"`
	// Root is the worktree path, used by launch-all to start workspaces
	// other than the current one. Optional; `start` always uses the
	// invoking directory.
	Root string `json:"root,omitempty" mapstructure:"root"`

	// WebPort and APIPort are the dev-server pair's listen ports.
	WebPort int `json:"web_port" mapstructure:"web_port"`
	APIPort int `json:"api_port" mapstructure:"api_port"`
	// DBPort is the host port the Postgres container publishes.
	DBPort int `json:"db_port" mapstructure:"db_port"`
	// ToolPort is reserved for auxiliary tooling (db studio, mail catcher).
	// The supervisor reclaims it but never launches anything on it.
	ToolPort int `json:"tool_port" mapstructure:"tool_port"`

	// DBContainer is the Postgres container name, unique across the table.
	DBContainer string `json:"db_container" mapstructure:"db_container"`
	// DBName is the logical database name inside the container.
	DBName string `json:"db_name" mapstructure:"db_name"`
}

// WebURL returns the browser-facing base URL for the workspace.
func (w *Workspace) WebURL() string { return fmt.Sprintf("http://localhost:%d", w.WebPort) }

// APIURL returns the API server base URL for the workspace.
func (w *Workspace) APIURL() string { return fmt.Sprintf("http://localhost:%d", w.APIPort) }

// Ports returns the ports this workspace owns on the host, in reclaim order.
func (w *Workspace) Ports() []int {
	return []int{w.WebPort, w.APIPort, w.ToolPort}
}

// Table is the resource allocation table: an ordered list of workspaces.
// Order matters for path resolution — the first suffix match wins.
type Table struct {
	entries []*Workspace
}

// NewTable builds a table from entries and validates the uniqueness
// invariant before returning it.
func NewTable(entries []*Workspace) (*Table, error) {
	t := &Table{entries: entries}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Default returns the built-in allocation table. New workspaces are
// provisioned by editing this table (or overriding it wholesale in the
// config file), never by runtime allocation.
func Default() *Table {
	return &Table{entries: []*Workspace{
		{
			Name:        "main",
			Match:       []string{"open-saas", "opensaas"},
			WebPort:     3000,
			APIPort:     3001,
			DBPort:      5432,
			ToolPort:    4000,
			DBContainer: "wasp-dev-db-main",
			DBName:      "opensaas",
		},
		{
			Name:        "dev1",
			Match:       []string{"-dev1"},
			WebPort:     3100,
			APIPort:     3101,
			DBPort:      5433,
			ToolPort:    4100,
			DBContainer: "wasp-dev-db-dev1",
			DBName:      "opensaas_dev1",
		},
		{
			Name:        "dev2",
			Match:       []string{"-dev2"},
			WebPort:     3200,
			APIPort:     3201,
			DBPort:      5434,
			ToolPort:    4200,
			DBContainer: "wasp-dev-db-dev2",
			DBName:      "opensaas_dev2",
		},
		{
			Name:        "dev3",
			Match:       []string{"-dev3"},
			WebPort:     3300,
			APIPort:     3301,
			DBPort:      5435,
			ToolPort:    4300,
			DBContainer: "wasp-dev-db-dev3",
			DBName:      "opensaas_dev3",
		},
	}}
}

// All returns the workspaces in table order.
func (t *Table) All() []*Workspace { return t.entries }

// Lookup returns the workspace named id, or ErrUnknown.
func (t *Table) Lookup(id Name) (*Workspace, error) {
	for _, ws := range t.entries {
		if ws.Name == id {
			return ws, nil
		}
	}
	return nil, fmt.Errorf("%w: %q has no allocation table entry", ErrUnknown, id)
}

// Resolve determines the workspace identity from the absolute path of the
// invoking working copy. The terminal path segment is matched against each
// entry's suffix patterns in table order; the first match wins. Returns
// ErrUnknown when nothing matches — never a default.
func (t *Table) Resolve(path string) (*Workspace, error) {
	base := strings.ToLower(filepath.Base(filepath.Clean(path)))
	for _, ws := range t.entries {
		for _, m := range ws.Match {
			if strings.HasSuffix(base, strings.ToLower(m)) {
				return ws, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: directory %q matches no allocation table entry", ErrUnknown, filepath.Base(path))
}

// Validate checks the table invariants: every entry is complete, every port
// is globally unique across all entries, and every container name is
// globally unique. Called on every load so a bad hand edit fails fast.
func (t *Table) Validate() error {
	if len(t.entries) == 0 {
		return errors.New("allocation table is empty")
	}
	names := map[Name]struct{}{}
	ports := map[int]Name{}
	containers := map[string]Name{}
	for _, ws := range t.entries {
		if ws.Name == "" {
			return errors.New("allocation table entry without a name")
		}
		if _, ok := names[ws.Name]; ok {
			return fmt.Errorf("duplicate workspace name %q", ws.Name)
		}
		names[ws.Name] = struct{}{}

		if len(ws.Match) == 0 {
			return fmt.Errorf("workspace %q: no match patterns", ws.Name)
		}
		if ws.DBContainer == "" || ws.DBName == "" {
			return fmt.Errorf("workspace %q: missing database container/name", ws.Name)
		}
		if prev, ok := containers[ws.DBContainer]; ok {
			return fmt.Errorf("container %q allocated to both %q and %q", ws.DBContainer, prev, ws.Name)
		}
		containers[ws.DBContainer] = ws.Name

		for _, p := range append(ws.Ports(), ws.DBPort) {
			if p <= 0 || p > 65535 {
				return fmt.Errorf("workspace %q: port %d out of range", ws.Name, p)
			}
			if prev, ok := ports[p]; ok {
				return fmt.Errorf("port %d allocated to both %q and %q", p, prev, ws.Name)
			}
			ports[p] = ws.Name
		}
	}
	return nil
}
