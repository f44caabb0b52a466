package term

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/ShalokShalom/acodex-server/internal/config"
)

// readBufferSize is the chunk size for the PTY read pump.
const readBufferSize = 32 * 1024

// Process is a shell (or command) running attached to a pseudo-terminal.
// Output is delivered as owned byte chunks on the channel returned by
// Output; the channel closing is the exit event, whether the process was
// killed or exited on its own.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File
	out  chan []byte

	killOnce sync.Once
	killErr  error
}

// ResolveShell picks the shell to spawn: the configured one, then $SHELL,
// then /bin/bash, then /bin/sh.
func ResolveShell(cfg *config.Config) string {
	if cfg.Terminal.Shell != "" {
		return cfg.Terminal.Shell
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if _, err := os.Stat("/bin/bash"); err == nil {
		return "/bin/bash"
	}
	return "/bin/sh"
}

// SpawnShell starts the configured shell under a PTY sized to cols x rows.
func SpawnShell(cfg *config.Config, cols, rows uint16) (*Process, error) {
	cmd := exec.Command(ResolveShell(cfg))
	return spawn(cfg, cmd, cols, rows)
}

func spawn(cfg *config.Config, cmd *exec.Cmd, cols, rows uint16) (*Process, error) {
	cmd.Env = append(os.Environ(), "TERM="+cfg.Terminal.Term)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	p := &Process{
		cmd:  cmd,
		ptmx: ptmx,
		out:  make(chan []byte, 32),
	}
	go p.readLoop()
	return p, nil
}

// readLoop pumps PTY output into the output channel until the PTY returns
// an error (EOF or EIO once the child exits), then reaps the child.
func (p *Process) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.out <- chunk
		}
		if err != nil {
			break
		}
	}
	p.ptmx.Close()
	p.cmd.Wait()
	close(p.out)
}

// ID returns the child PID. It is the session identifier space.
func (p *Process) ID() int {
	return p.cmd.Process.Pid
}

func (p *Process) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

func (p *Process) Resize(cols, rows uint16) error {
	return pty.Setsize(p.ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

// Output returns the channel of output chunks. It is closed when the
// process exits.
func (p *Process) Output() <-chan []byte {
	return p.out
}

// Kill terminates the backing process. Safe to call more than once; exit is
// observed through the Output channel closing, not through Kill returning.
func (p *Process) Kill() error {
	p.killOnce.Do(func() {
		p.killErr = p.cmd.Process.Kill()
	})
	return p.killErr
}
