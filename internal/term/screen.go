package term

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hinshun/vt10x"
)

// Screen is the terminal-state model for one session. It interprets the raw
// output byte stream and can serialize the visible state into an ANSI
// sequence that reproduces it when replayed into a fresh screen or a client
// renderer.
type Screen struct {
	mu   sync.Mutex
	vt   vt10x.Terminal
	cols int
	rows int
}

func NewScreen(cols, rows int) *Screen {
	return &Screen{
		vt:   vt10x.New(vt10x.WithSize(cols, rows)),
		cols: cols,
		rows: rows,
	}
}

// Write feeds raw process output into the emulator.
func (s *Screen) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vt.Write(p)
}

func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vt.Resize(cols, rows)
	s.cols = cols
	s.rows = rows
}

func (s *Screen) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Snapshot serializes the current visible state: clear screen, every cell
// with minimal SGR changes, then the cursor position. Replaying the result
// into a fresh screen of the same size yields the same visible state.
func (s *Screen) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	cols, rows := s.vt.Size()

	buf.WriteString("\x1b[2J")
	buf.WriteString("\x1b[H")

	lastFG, lastBG := vt10x.DefaultFG, vt10x.DefaultBG

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := s.vt.Cell(col, row)

			if cell.FG != lastFG || cell.BG != lastBG {
				buf.WriteString("\x1b[0m")
				if cell.FG != vt10x.DefaultFG && cell.FG < 256 {
					fmt.Fprintf(&buf, "\x1b[38;5;%dm", cell.FG)
				}
				if cell.BG != vt10x.DefaultBG && cell.BG < 256 {
					fmt.Fprintf(&buf, "\x1b[48;5;%dm", cell.BG)
				}
				lastFG, lastBG = cell.FG, cell.BG
			}

			if cell.Char == 0 {
				buf.WriteRune(' ')
			} else {
				buf.WriteRune(cell.Char)
			}
		}
		if row < rows-1 {
			buf.WriteString("\r\n")
		}
	}

	buf.WriteString("\x1b[0m")

	cursor := s.vt.Cursor()
	fmt.Fprintf(&buf, "\x1b[%d;%dH", cursor.Y+1, cursor.X+1)

	return buf.Bytes()
}
