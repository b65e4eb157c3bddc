package config

import (
	"os"
	"path/filepath"
	"time"

	coretypes "github.com/projecteru2/core/types"

	"github.com/opensaas/devfleet/utils"
	"github.com/opensaas/devfleet/workspace"
)

// Config holds global devfleet configuration.
type Config struct {
	// RunDir is the base directory for runtime state (lock files, PID files).
	// Contents are ephemeral and may not survive reboots.
	// Env: DEVFLEET_RUN_DIR.
	RunDir string `json:"run_dir" mapstructure:"run_dir"`
	// LogDir is the base directory for launched dev-server logs.
	// Env: DEVFLEET_LOG_DIR.
	LogDir string `json:"log_dir" mapstructure:"log_dir"`

	// DockerBinary is the path or name of the docker executable.
	DockerBinary string `json:"docker_binary" mapstructure:"docker_binary"`
	// LsofBinary is the path or name of the lsof executable used to
	// enumerate listeners during port reclamation.
	LsofBinary string `json:"lsof_binary" mapstructure:"lsof_binary"`

	// PostgresImage is the image used for per-workspace database containers.
	PostgresImage string `json:"postgres_image" mapstructure:"postgres_image"`
	// PostgresUser and PostgresPassword are the superuser credentials baked
	// into each container. Development-only credentials.
	PostgresUser     string `json:"postgres_user" mapstructure:"postgres_user"`
	PostgresPassword string `json:"postgres_password" mapstructure:"postgres_password"`

	// DBStartTimeoutSeconds bounds the wait for a database container to
	// accept connections. Expiry is a distinct, fatal error so operators can
	// tell "database broken" from "ports stuck".
	DBStartTimeoutSeconds int `json:"db_start_timeout_seconds" mapstructure:"db_start_timeout_seconds"`
	// DBPollIntervalMillis is the readiness probe interval.
	DBPollIntervalMillis int `json:"db_poll_interval_millis" mapstructure:"db_poll_interval_millis"`

	// ReclaimRetries is how many full reclaim passes to attempt per port
	// before giving up. An un-killable occupant is an operator problem, not
	// something to paper over.
	ReclaimRetries int `json:"reclaim_retries" mapstructure:"reclaim_retries"`
	// ReclaimGraceSeconds is the SIGTERM→SIGKILL window per occupant process.
	ReclaimGraceSeconds int `json:"reclaim_grace_seconds" mapstructure:"reclaim_grace_seconds"`
	// ReclaimSettleMillis is the pause after a reclaim pass before the port
	// is re-checked.
	ReclaimSettleMillis int `json:"reclaim_settle_millis" mapstructure:"reclaim_settle_millis"`

	// WebCommand and APICommand launch the dev-server pair. Run via
	// `sh -c` from the worktree root with the materialized environment.
	// The processes are opaque to devfleet.
	WebCommand string `json:"web_command" mapstructure:"web_command"`
	APICommand string `json:"api_command" mapstructure:"api_command"`

	// CleanPaths are worktree-relative artifact paths wiped by `start
	// --clean` (build caches, installed dependencies). Strictly slower;
	// opt-in.
	CleanPaths []string `json:"clean_paths" mapstructure:"clean_paths"`

	// Workspaces overrides the built-in allocation table wholesale when
	// non-empty. Reviewed like code; validated on load.
	Workspaces []*workspace.Workspace `json:"workspaces" mapstructure:"workspaces"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or env overrides
// are present.
func DefaultConfig() *Config {
	return &Config{
		RunDir:                filepath.Join(homeDir(), ".devfleet", "run"),
		LogDir:                filepath.Join(homeDir(), ".devfleet", "log"),
		DockerBinary:          "docker",
		LsofBinary:            "lsof",
		PostgresImage:         "postgres:16",
		PostgresUser:          "postgres",
		PostgresPassword:      "postgres",
		DBStartTimeoutSeconds: 60,
		DBPollIntervalMillis:  500,
		ReclaimRetries:        2,
		ReclaimGraceSeconds:   5,
		ReclaimSettleMillis:   500,
		WebCommand:            "npm run start:client",
		APICommand:            "npm run start:server",
		CleanPaths:            []string{"node_modules", ".wasp/out", "build", "dist"},
		Log:                   coretypes.ServerLogConfig{Level: "info"},
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

// Table resolves the effective allocation table: the config override when
// present, otherwise the built-in default. Always validated.
func (c *Config) Table() (*workspace.Table, error) {
	if len(c.Workspaces) > 0 {
		return workspace.NewTable(c.Workspaces)
	}
	t := workspace.Default()
	return t, t.Validate()
}

// DBStartTimeout returns the readiness wait bound as a duration.
func (c *Config) DBStartTimeout() time.Duration {
	return time.Duration(c.DBStartTimeoutSeconds) * time.Second
}

// DBPollInterval returns the readiness probe interval as a duration.
func (c *Config) DBPollInterval() time.Duration {
	return time.Duration(c.DBPollIntervalMillis) * time.Millisecond
}

// ReclaimGrace returns the per-process SIGTERM→SIGKILL window.
func (c *Config) ReclaimGrace() time.Duration {
	return time.Duration(c.ReclaimGraceSeconds) * time.Second
}

// ReclaimSettle returns the post-pass settle delay.
func (c *Config) ReclaimSettle() time.Duration {
	return time.Duration(c.ReclaimSettleMillis) * time.Millisecond
}

// EnsureDirs creates the static run and log directories.
func (c *Config) EnsureDirs() error {
	return utils.EnsureDirs(c.RunDir, c.LogDir)
}

// EnsureWorkspaceDirs creates the per-workspace runtime and log directories.
func (c *Config) EnsureWorkspaceDirs(id workspace.Name) error {
	return utils.EnsureDirs(c.WorkspaceRunDir(id), c.WorkspaceLogDir(id))
}

// Derived path helpers. Runtime state lives under {RunDir}/{workspace},
// process logs under {LogDir}/{workspace}.

func (c *Config) WorkspaceRunDir(id workspace.Name) string {
	return filepath.Join(c.RunDir, string(id))
}

func (c *Config) WorkspaceLogDir(id workspace.Name) string {
	return filepath.Join(c.LogDir, string(id))
}

// WorkspaceLock is the flock path serializing mutating operations for one
// workspace across processes.
func (c *Config) WorkspaceLock(id workspace.Name) string {
	return filepath.Join(c.WorkspaceRunDir(id), "workspace.lock")
}

// WebPIDFile and APIPIDFile record the last launched dev-server PIDs.
// Informational only — the OS port table stays the source of truth.
func (c *Config) WebPIDFile(id workspace.Name) string {
	return filepath.Join(c.WorkspaceRunDir(id), "web.pid")
}

func (c *Config) APIPIDFile(id workspace.Name) string {
	return filepath.Join(c.WorkspaceRunDir(id), "api.pid")
}

// WebLogFile and APILogFile receive the launched processes' combined output.
func (c *Config) WebLogFile(id workspace.Name) string {
	return filepath.Join(c.WorkspaceLogDir(id), "web.log")
}

func (c *Config) APILogFile(id workspace.Name) string {
	return filepath.Join(c.WorkspaceLogDir(id), "api.log")
}
