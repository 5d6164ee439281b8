// Package daemon turns the controller into a persistent local service: a
// Unix-socket server speaking newline-delimited JSON, with idle-timeout
// self-shutdown, signal-triggered graceful shutdown, and a PID file so
// control commands can find the process.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/randalmurphal/hookgate/pkg/hookgate/controller"
	hookerrors "github.com/randalmurphal/hookgate/pkg/hookgate/errors"
	"github.com/randalmurphal/hookgate/pkg/hookgate/observability"
)

// maxLineBytes bounds one request line; tool inputs can carry whole file
// contents.
const maxLineBytes = 10 << 20

// DefaultIdleTimeout is the self-shutdown timeout when none is configured.
const DefaultIdleTimeout = 5 * time.Minute

// Accept errors outside shutdown (resource exhaustion, mostly) get a short
// backoff; past maxAcceptFailures consecutive failures, or when the
// listener itself is gone, the daemon shuts down instead of spinning.
const (
	acceptBackoff     = 100 * time.Millisecond
	maxAcceptFailures = 10
)

// Config holds daemon settings. Empty paths fall back to the
// workspace-derived defaults (see paths.go), which the environment
// overrides in turn.
type Config struct {
	SocketPath  string
	PIDPath     string
	IdleTimeout time.Duration

	// WorkspaceRoot seeds the default socket/PID paths so per-tree
	// daemons coexist.
	WorkspaceRoot string
}

func (c Config) socketPath() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	return DefaultSocketPath(c.WorkspaceRoot)
}

func (c Config) pidPath() string {
	if c.PIDPath != "" {
		return c.PIDPath
	}
	return DefaultPIDPath(c.WorkspaceRoot)
}

func (c Config) idleTimeout() time.Duration {
	if c.IdleTimeout > 0 {
		return c.IdleTimeout
	}
	return DefaultIdleTimeout
}

// Daemon is the long-lived socket server hosting one controller.
type Daemon struct {
	ctrl   *controller.Controller
	config Config
	logger *slog.Logger

	listener     net.Listener
	shuttingDown atomic.Bool
	activity     chan struct{}
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// New creates a daemon around an initialised controller.
func New(ctrl *controller.Controller, config Config, logger *slog.Logger) *Daemon {
	return &Daemon{
		ctrl:     ctrl,
		config:   config,
		logger:   logger,
		activity: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Run starts listening and blocks until a shutdown trigger (signal or idle
// timeout) has been handled. It refuses to start when a live daemon
// already owns the socket.
func (d *Daemon) Run() error {
	socketPath := d.config.socketPath()
	pidPath := d.config.pidPath()

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create runtime dir: %w", err)
	}

	// A connectable socket means another instance is alive; a stale file
	// from a crashed one is removed.
	if conn, err := net.DialTimeout("unix", socketPath, time.Second); err == nil {
		conn.Close()
		return fmt.Errorf("daemon already running at %s", socketPath)
	}
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	d.listener = listener

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		listener.Close()
		os.Remove(socketPath)
		return fmt.Errorf("write pid file: %w", err)
	}

	if d.logger != nil {
		d.logger.Info("daemon listening",
			slog.String("socket", socketPath),
			slog.Int("pid", os.Getpid()),
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	done := make(chan struct{})

	go d.acceptLoop()

	// The shutdown trigger is a scheduled task, not a synchronous signal
	// handler: once it fires we stop accepting and let in-flight
	// connections finish their current request.
	go func() {
		defer close(done)
		idle := time.NewTimer(d.config.idleTimeout())
		defer idle.Stop()
		for {
			select {
			case <-sigCh:
				observability.LogShutdown(d.logger, "signal")
				return
			case <-idle.C:
				observability.LogShutdown(d.logger, "idle_timeout")
				return
			case <-d.stop:
				observability.LogShutdown(d.logger, "requested")
				return
			case <-d.activity:
				if !idle.Stop() {
					select {
					case <-idle.C:
					default:
					}
				}
				idle.Reset(d.config.idleTimeout())
			}
		}
	}()

	<-done
	d.Shutdown()
	return nil
}

// acceptLoop serves connections until the listener closes. Transient
// Accept errors back off; a dead listener or a persistent error streak
// triggers shutdown rather than a busy spin.
func (d *Daemon) acceptLoop() {
	failures := 0
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if d.shuttingDown.Load() {
				return
			}
			failures++
			if errors.Is(err, net.ErrClosed) || failures >= maxAcceptFailures {
				if d.logger != nil {
					d.logger.Error("accept failed, stopping daemon",
						slog.String("error", err.Error()),
						slog.Int("consecutive_failures", failures),
					)
				}
				d.requestStop()
				return
			}
			if d.logger != nil {
				d.logger.Warn("accept failed",
					slog.String("error", err.Error()),
				)
			}
			time.Sleep(acceptBackoff)
			continue
		}
		failures = 0
		d.touch()
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.handleConnection(conn)
		}()
	}
}

// requestStop wakes the shutdown monitor. Safe to call more than once and
// concurrently with Shutdown.
func (d *Daemon) requestStop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// touch notes request activity for the idle timer.
func (d *Daemon) touch() {
	select {
	case d.activity <- struct{}{}:
	default:
	}
}

// handleConnection reads newline-delimited JSON requests off one
// connection and answers each in order. A malformed line produces an error
// envelope and the connection stays open; nothing here can take down the
// listener or other connections.
func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		d.touch()

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			terr := hookerrors.Transport(err, "decode request")
			if d.logger != nil {
				d.logger.Debug("malformed request line",
					slog.String("error", terr.Error()),
				)
			}
			d.reply(encoder, errorResponse("malformed request: "+terr.Error(), ""))
			continue
		}

		d.reply(encoder, d.handleRequest(req))

		if d.shuttingDown.Load() {
			// In-flight request finished; close instead of reading more.
			return
		}
	}
}

// handleRequest answers one parsed request. Any panic converts to an error
// envelope on this connection only.
func (d *Daemon) handleRequest(req Request) (resp map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			resp = errorResponse(fmt.Sprintf("internal error: %v", r), req.RequestID)
		}
	}()

	switch {
	case req.Action != "":
		return d.handleSystem(req)
	case req.Event != "":
		return d.handleEvent(req)
	default:
		return errorResponse("request carries neither event nor action", req.RequestID)
	}
}

func (d *Daemon) handleSystem(req Request) map[string]any {
	switch req.Action {
	case ActionHealth:
		return resultResponse(d.ctrl.GetHealth(), req.RequestID)
	case ActionHandlers:
		return resultResponse(d.ctrl.GetHandlers(), req.RequestID)
	default:
		return errorResponse("unknown action: "+req.Action, req.RequestID)
	}
}

func (d *Daemon) handleEvent(req Request) map[string]any {
	payload := req.HookInput
	if payload == nil {
		payload = map[string]any{}
	}

	resp := d.ctrl.ProcessRequest(context.Background(), req.Event, payload)
	if req.RequestID != "" {
		resp["request_id"] = req.RequestID
	}
	return resp
}

func (d *Daemon) reply(encoder *json.Encoder, resp map[string]any) {
	if err := encoder.Encode(resp); err != nil && d.logger != nil {
		d.logger.Debug("response write failed",
			slog.String("error", err.Error()),
		)
	}
}

// Shutdown stops accepting, waits for in-flight connections, and removes
// the socket and PID files. Safe to call more than once.
func (d *Daemon) Shutdown() {
	if !d.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	d.requestStop()

	if d.listener != nil {
		d.listener.Close()
	}
	d.wg.Wait()

	os.Remove(d.config.socketPath())
	os.Remove(d.config.pidPath())
}
