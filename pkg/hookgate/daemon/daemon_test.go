package daemon_test

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hookgate/pkg/hookgate/config"
	"github.com/randalmurphal/hookgate/pkg/hookgate/controller"
	"github.com/randalmurphal/hookgate/pkg/hookgate/daemon"
	"github.com/randalmurphal/hookgate/pkg/hookgate/handlers"
)

// startDaemon runs a daemon over a temp socket and returns its config plus
// a done channel that closes when Run returns.
func startDaemon(t *testing.T, cfg config.Config, idle time.Duration) (daemon.Config, chan struct{}) {
	t.Helper()

	dir := t.TempDir()
	dcfg := daemon.Config{
		SocketPath:  filepath.Join(dir, "d.sock"),
		PIDPath:     filepath.Join(dir, "d.pid"),
		IdleTimeout: idle,
	}

	ctrl := controller.New(controller.Options{Catalog: handlers.Catalog()})
	require.NoError(t, ctrl.Init(cfg, dir))

	d := daemon.New(ctrl, dcfg, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := d.Run(); err != nil {
			t.Errorf("daemon run: %v", err)
		}
	}()
	t.Cleanup(func() {
		d.Shutdown()
		<-done
	})

	waitForSocket(t, dcfg.SocketPath)
	return dcfg, done
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	for i := 0; i < 50; i++ {
		if conn, err := net.DialTimeout("unix", path, 100*time.Millisecond); err == nil {
			conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("daemon socket never came up")
}

func validConfig() config.Config {
	return config.New(map[string]any{"version": 1})
}

func TestDenyScenarioOverSocket(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	c, err := daemon.Dial(dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Send(daemon.Request{
		Event: "PreToolUse",
		HookInput: map[string]any{
			"tool_name":  "Bash",
			"tool_input": map[string]any{"command": "rm -rf /"},
		},
	})
	require.NoError(t, err)

	out, ok := resp["hookSpecificOutput"].(map[string]any)
	require.True(t, ok, "tool-use deny must use hookSpecificOutput, got %v", resp)
	assert.Equal(t, "deny", out["permissionDecision"])
	reason, _ := out["permissionDecisionReason"].(string)
	assert.Contains(t, reason, "Destructive command blocked")
	assert.Contains(t, reason, "To disable: handlers.PreToolUse.bash_guard (set enabled: false)")
}

func TestStopWithNoHandlersIsEmptyObject(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	c, err := daemon.Dial(dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Send(daemon.Request{
		Event:     "Stop",
		HookInput: map[string]any{"transcript_path": "/tmp/t.jsonl"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestMalformedLineKeepsConnectionOpen(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	conn, err := net.DialTimeout("unix", dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("this is not json\n"))
	require.NoError(t, err)

	dec := json.NewDecoder(conn)
	var errResp map[string]any
	require.NoError(t, dec.Decode(&errResp))
	msg, _ := errResp["error"].(string)
	assert.Contains(t, msg, "malformed request")
	assert.Contains(t, msg, "category: transport")

	// The same connection still serves the next request.
	_, err = conn.Write([]byte(`{"event":"Stop","hook_input":{}}` + "\n"))
	require.NoError(t, err)
	var ok map[string]any
	require.NoError(t, dec.Decode(&ok))
	assert.NotContains(t, ok, "error")
}

func TestRequestIDEcho(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	c, err := daemon.Dial(dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Send(daemon.Request{Action: daemon.ActionHealth, RequestID: "req-7"})
	require.NoError(t, err)
	assert.Equal(t, "req-7", resp["request_id"])
	require.Contains(t, resp, "result")

	result, ok := resp["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", result["status"])
}

func TestHandlersAction(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	c, err := daemon.Dial(dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Send(daemon.Request{Action: daemon.ActionHandlers})
	require.NoError(t, err)

	result, ok := resp["result"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, result, "PreToolUse")
}

func TestDegradedModeOverSocket(t *testing.T) {
	// Configuration missing its version: the validator reports
	// "Missing required field: version" and the daemon fails open.
	dcfg, _ := startDaemon(t, config.New(nil), time.Minute)

	c, err := daemon.Dial(dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Send(daemon.Request{
		Event: "PreToolUse",
		HookInput: map[string]any{
			"tool_name":  "Bash",
			"tool_input": map[string]any{"command": "rm -rf /"},
		},
	})
	require.NoError(t, err)

	// Even a destructive command is allowed, with the config errors as
	// context.
	out, ok := resp["hookSpecificOutput"].(map[string]any)
	require.True(t, ok)
	_, hasDeny := out["permissionDecision"]
	assert.False(t, hasDeny)
	ctx, _ := out["additionalContext"].(string)
	assert.Contains(t, ctx, "degraded mode")
	assert.Contains(t, ctx, "Missing required field: version")

	health, err := c.Send(daemon.Request{Action: daemon.ActionHealth})
	require.NoError(t, err)
	result := health["result"].(map[string]any)
	assert.Equal(t, "degraded", result["status"])
}

func TestUnknownActionGetsErrorEnvelope(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	c, err := daemon.Dial(dcfg.SocketPath, time.Second)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Send(daemon.Request{Action: "reboot", RequestID: "r1"})
	require.NoError(t, err)
	msg, _ := resp["error"].(string)
	assert.Contains(t, msg, "unknown action")
	assert.Equal(t, "r1", resp["request_id"])
}

func TestIdleTimeoutShutdown(t *testing.T) {
	dcfg, done := startDaemon(t, validConfig(), 300*time.Millisecond)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down on idle timeout")
	}

	_, err := os.Stat(dcfg.SocketPath)
	assert.True(t, os.IsNotExist(err), "socket file should be removed on shutdown")
	_, err = os.Stat(dcfg.PIDPath)
	assert.True(t, os.IsNotExist(err), "pid file should be removed on shutdown")
}

func TestPIDFileWritten(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	pid, err := daemon.ReadPIDFile(dcfg.PIDPath)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, daemon.ProcessAlive(pid))
}

func TestConcurrentConnections(t *testing.T) {
	dcfg, _ := startDaemon(t, validConfig(), time.Minute)

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			c, err := daemon.Dial(dcfg.SocketPath, time.Second)
			if err != nil {
				errs <- err
				return
			}
			defer c.Close()
			_, err = c.Send(daemon.Request{Event: "Stop", HookInput: map[string]any{}})
			errs <- err
		}()
	}

	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(daemon.SocketEnv, "/custom/sock")
	t.Setenv(daemon.PIDFileEnv, "/custom/pid")

	assert.Equal(t, "/custom/sock", daemon.DefaultSocketPath("/some/root"))
	assert.Equal(t, "/custom/pid", daemon.DefaultPIDPath("/some/root"))
}

func TestPerWorkspaceDefaults(t *testing.T) {
	a := daemon.DefaultSocketPath("/work/tree-a")
	b := daemon.DefaultSocketPath("/work/tree-b")
	assert.NotEqual(t, a, b, "distinct workspaces need distinct sockets")
	assert.Equal(t, a, daemon.DefaultSocketPath("/work/tree-a"))
}
