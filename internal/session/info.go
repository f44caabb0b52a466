package session

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Info is a point-in-time description of a session, including best-effort
// resource usage of the backing process. Sampling failures (process already
// gone, unsupported platform) leave the usage fields zero.
type Info struct {
	ID         int       `json:"id"`
	State      State     `json:"state"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"startedAt"`
	CPUPercent float64   `json:"cpuPercent,omitempty"`
	MemoryRSS  uint64    `json:"memoryRss,omitempty"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	info := Info{
		ID:        s.id,
		State:     s.state,
		StartedAt: s.startedAt,
	}
	screen := s.screen
	s.mu.Unlock()

	if screen != nil {
		info.Cols, info.Rows = screen.Size()
	}

	if info.State == StateUnattached || info.State == StateAttached {
		if proc, err := process.NewProcess(int32(s.id)); err == nil {
			if cpu, err := proc.CPUPercent(); err == nil {
				info.CPUPercent = cpu
			}
			if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
				info.MemoryRSS = mem.RSS
			}
		}
	}

	return info
}
