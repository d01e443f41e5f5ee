package e2e

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const (
	startupTimeout = 10 * time.Second
	pollInterval   = 100 * time.Millisecond
)

// lockedBuffer is a thread-safe wrapper around bytes.Buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lb *lockedBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.Write(p)
}

func (lb *lockedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

// proc holds a running subprocess and its output.
type proc struct {
	cmd    *exec.Cmd
	stdout *lockedBuffer
	url    string
}

// stop kills the process and waits for it to exit.
func (p *proc) stop() {
	_ = p.cmd.Process.Kill()
	_ = p.cmd.Wait()
}

var (
	binDir    string
	buildOnce sync.Once
	buildErr  error
)

// binary returns the path of the named ./cmd program, building all of them
// on first use.
func binary(t *testing.T, name string) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "vaultchain-e2e-*")
		if err != nil {
			buildErr = err
			return
		}
		for _, pkg := range []string{"vaultchain", "testserver"} {
			cmd := exec.Command("go", "build", "-o", filepath.Join(dir, pkg), "./cmd/"+pkg)
			cmd.Dir = findRepoRoot(t)
			if out, err := cmd.CombinedOutput(); err != nil {
				buildErr = fmt.Errorf("go build %s failed: %w\n%s", pkg, err, out)
				return
			}
		}
		binDir = dir
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return filepath.Join(binDir, name)
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root")
		}
		dir = parent
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// start runs bin with env and waits until readyPath answers on addr. A
// non-empty readyPath is polled with GET; otherwise a TCP dial suffices.
func start(t *testing.T, bin, addr, readyPath string, env ...string) *proc {
	t.Helper()

	stdout := &lockedBuffer{}
	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = stdout
	cmd.Stderr = stdout

	if err := cmd.Start(); err != nil {
		t.Fatalf("start %s: %v", bin, err)
	}

	p := &proc{cmd: cmd, stdout: stdout, url: "http://" + addr}
	t.Cleanup(p.stop)

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		if readyPath == "" {
			if conn, err := net.Dial("tcp", addr); err == nil {
				conn.Close()
				return p
			}
		} else if resp, err := http.Get(p.url + readyPath); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return p
			}
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("%s did not become ready within %v\nstdout:\n%s", bin, startupTimeout, stdout.String())
	return nil
}

// startServer runs the vaultchain API server with the given executor URL
// and database path.
func startServer(t *testing.T, executorURL, dbPath string) *proc {
	t.Helper()
	addr := freeAddr(t)
	return start(t, binary(t, "vaultchain"), addr, "/healthz",
		"VAULTCHAIN_LISTEN_ADDR="+addr,
		"MCP_URL="+executorURL,
		"VAULTCHAIN_DB_PATH="+dbPath,
		"VAULTCHAIN_DISPATCH_TIMEOUT_MS=2000",
		"VAULTCHAIN_LOG_LEVEL=info",
	)
}

// startExecutor runs the stand-alone executor.
func startExecutor(t *testing.T, env ...string) *proc {
	t.Helper()
	addr := freeAddr(t)
	return start(t, binary(t, "testserver"), addr, "",
		append([]string{"VAULTCHAIN_EXECUTOR_ADDR=" + addr}, env...)...)
}
