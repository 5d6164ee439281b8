package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/hookgate/pkg/hookgate/audit"
	"github.com/randalmurphal/hookgate/pkg/hookgate/config"
	"github.com/randalmurphal/hookgate/pkg/hookgate/controller"
	"github.com/randalmurphal/hookgate/pkg/hookgate/daemon"
	"github.com/randalmurphal/hookgate/pkg/hookgate/handlers"
	"github.com/randalmurphal/hookgate/pkg/hookgate/observability"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
)

// configFileName is the per-workspace configuration file.
const configFileName = ".hookgate.yml"

// loadConfig reads the configuration file, falling back to a minimal valid
// default when none exists. A present-but-broken file is returned as an
// error so the daemon command can decide; validation errors inside a
// readable file are the controller's business (degraded mode), not ours.
func loadConfig(path, root string) (config.Config, error) {
	if path == "" {
		path = filepath.Join(root, configFileName)
		if _, err := os.Stat(path); err != nil {
			return config.New(map[string]any{"version": 1}), nil
		}
	}
	return config.FromFile(path)
}

func newDaemonCmd() *cobra.Command {
	var (
		configPath  string
		socketPath  string
		pidPath     string
		idleTimeout time.Duration
		auditDB     string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the dispatch daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.NewLogger(logLevel)

			proj, err := project.Resolve("")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configPath, proj.Root)
			if err != nil {
				return err
			}

			var store audit.Store = audit.NewMemoryStore()
			if auditDB != "" {
				s, err := audit.NewSQLiteStore(auditDB)
				if err != nil {
					return fmt.Errorf("open audit log: %w", err)
				}
				store = s
			}
			defer store.Close()

			ctrl := controller.New(controller.Options{
				Logger:  logger,
				Metrics: observability.NewMetricsRecorder(logger),
				Spans:   observability.NewSpanManager(),
				Audit:   store,
				Catalog: handlers.Catalog(),
			})
			if err := ctrl.Init(cfg, proj.Root); err != nil {
				return err
			}

			dcfg := cfg.Daemon()
			d := daemon.New(ctrl, daemon.Config{
				SocketPath:    firstNonEmpty(socketPath, dcfg.String("socket_path", "")),
				PIDPath:       firstNonEmpty(pidPath, dcfg.String("pid_path", "")),
				IdleTimeout:   pickTimeout(idleTimeout, dcfg),
				WorkspaceRoot: proj.Root,
			}, logger)
			return d.Run()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: <root>/"+configFileName+")")
	cmd.Flags().StringVar(&socketPath, "socket", "", "socket path override")
	cmd.Flags().StringVar(&pidPath, "pid-file", "", "PID file override")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "self-shutdown after this idle period")
	cmd.Flags().StringVar(&auditDB, "audit-db", "", "SQLite decision log path (default: in-memory)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func pickTimeout(flag time.Duration, dcfg config.Config) time.Duration {
	if flag > 0 {
		return flag
	}
	return dcfg.Duration("idle_timeout", 0)
}

// workspacePaths resolves the socket/PID paths the control commands talk
// to, mirroring the daemon's defaults for the current workspace.
func workspacePaths() (socket, pid string, err error) {
	proj, err := project.Resolve("")
	if err != nil {
		return "", "", err
	}
	return daemon.DefaultSocketPath(proj.Root), daemon.DefaultPIDPath(proj.Root), nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon for this workspace is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, pidPath, err := workspacePaths()
			if err != nil {
				return err
			}

			pid, err := daemon.ReadPIDFile(pidPath)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not running")
				return nil
			}
			if !daemon.ProcessAlive(pid) {
				fmt.Fprintf(cmd.OutOrStdout(), "not running (stale PID %d)\n", pid)
				os.Remove(pidPath)
				os.Remove(socket)
				return nil
			}

			c, err := daemon.Dial(socket, time.Second)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "process %d alive but socket not responding\n", pid)
				return nil
			}
			c.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "running (PID %d)\n", pid)
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon for this workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, pidPath, err := workspacePaths()
			if err != nil {
				return err
			}
			if err := daemon.Stop(socket, pidPath, 2*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stopped")
			return nil
		},
	}
}

// systemCmd builds a command that sends one system action and prints the
// result as JSON.
func systemCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, _, err := workspacePaths()
			if err != nil {
				return err
			}

			c, err := daemon.Dial(socket, time.Second)
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Send(daemon.Request{Action: action})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return systemCmd("health", "Query daemon health", daemon.ActionHealth)
}

func newHandlersCmd() *cobra.Command {
	return systemCmd("handlers", "List discovered handlers", daemon.ActionHandlers)
}

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <event-kind>",
		Short: "Forward a hook event from stdin to the daemon",
		Long: `Reads the host tool's hook input JSON from stdin, forwards it to the
daemon for the given event kind, and prints the wire response. This is the
command the host tool invokes for each hook event.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}

			var payload map[string]any
			if len(input) > 0 {
				if err := json.Unmarshal(input, &payload); err != nil {
					return fmt.Errorf("parse hook input: %w", err)
				}
			}

			socket, _, err := workspacePaths()
			if err != nil {
				return err
			}

			c, err := daemon.Dial(socket, time.Second)
			if err != nil {
				// No daemon means no opinion: emit the silent allow so
				// the host tool never blocks on our absence.
				fmt.Fprintln(cmd.OutOrStdout(), "{}")
				return nil
			}
			defer c.Close()

			resp, err := c.Send(daemon.Request{Event: args[0], HookInput: payload})
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "{}")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
