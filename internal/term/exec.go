package term

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"

	"github.com/ShalokShalom/acodex-server/internal/config"
)

// RunCommand spawns a short-lived process under a PTY, accumulates all
// output until it exits, and returns the text with control and escape
// sequences stripped. No session is registered; nothing survives the call.
// The process is killed when ctx expires.
func RunCommand(ctx context.Context, cfg *config.Config, command string) (string, error) {
	cmd := exec.Command(ResolveShell(cfg), "-c", command)
	cmd.Env = append(os.Environ(), "TERM="+cfg.Terminal.Term)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cfg.Terminal.DefaultCols),
		Rows: uint16(cfg.Terminal.DefaultRows),
	})
	if err != nil {
		return "", fmt.Errorf("start command: %w", err)
	}
	defer ptmx.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cmd.Process.Kill()
		case <-done:
		}
	}()

	// The copy ends with EOF or EIO once the child exits; either way the
	// accumulated output is complete.
	var buf bytes.Buffer
	io.Copy(&buf, ptmx)
	close(done)
	cmd.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return string(StripControl(buf.Bytes())), nil
}
