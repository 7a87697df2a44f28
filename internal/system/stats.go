package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a point-in-time view of memory use.
type HostStats struct {
	ProcessRSS      uint64
	HostUsed        uint64
	HostTotal       uint64
	HostUsedPercent float64
}

// Snapshot reads memory figures for this process and the host. Missing
// figures are left zero.
func Snapshot() HostStats {
	var hs HostStats
	if vm, err := mem.VirtualMemory(); err == nil {
		hs.HostUsed = vm.Used
		hs.HostTotal = vm.Total
		hs.HostUsedPercent = vm.UsedPercent
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			hs.ProcessRSS = mi.RSS
		}
	}
	return hs
}

// Report summarises one conversion run.
type Report struct {
	Build       string
	Input       string
	Items       int
	Output      string
	OutputBytes int64
	Total       time.Duration
	Writing     time.Duration
	Compositing time.Duration
	Host        HostStats
}

func (r Report) String() string {
	var b strings.Builder
	b.WriteString("--- [PERFORMANCE REPORT] ---\n")
	fmt.Fprintf(&b, "Build: %s\n", r.Build)
	fmt.Fprintf(&b, "Items: %d\n", r.Items)
	fmt.Fprintf(&b, "Total Time: %.2fs\n", r.Total.Seconds())
	fmt.Fprintf(&b, "Frame Writing: %.2fs\n", r.Writing.Seconds())
	fmt.Fprintf(&b, "Compositing: %.2fs\n", r.Compositing.Seconds())
	fmt.Fprintf(&b, "Output: %s (%s)\n", r.Output, humanize.Bytes(uint64(r.OutputBytes)))
	fmt.Fprintf(&b, "Process RSS: %s | Host memory: %s / %s (%.1f%%)\n",
		humanize.Bytes(r.Host.ProcessRSS), humanize.Bytes(r.Host.HostUsed),
		humanize.Bytes(r.Host.HostTotal), r.Host.HostUsedPercent)
	b.WriteString("----------------------------\n")
	return b.String()
}

// Line is the single-line form appended to the benchmark log.
func (r Report) Line(now time.Time) string {
	return fmt.Sprintf("[%s] Build: %s | Input: %s | Items: %d | Total: %.2fs | Write: %.2fs | Composite: %.2fs | Size: %s\n",
		now.Format("2006-01-02 15:04:05"),
		r.Build,
		filepath.Base(r.Input),
		r.Items,
		r.Total.Seconds(),
		r.Writing.Seconds(),
		r.Compositing.Seconds(),
		humanize.Bytes(uint64(r.OutputBytes)),
	)
}

// AppendBenchmark appends the report line to path.
func AppendBenchmark(path string, r Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(r.Line(time.Now()))
	return err
}
