package mux

import (
	"github.com/shirou/gopsutil/v4/process"
)

// refreshStats samples CPU and memory for every running child. Samples
// are best effort; a vanished process just keeps its last numbers
// until markExited runs.
func (m *Multiplexer) refreshStats() {
	for _, s := range m.sessions {
		if !s.Running || s.Handle == nil {
			continue
		}
		pid := s.Handle.Pid()
		if pid <= 0 {
			continue
		}
		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			continue
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			s.Stats.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			s.Stats.MemoryRSS = mem.RSS
		}
	}
}
