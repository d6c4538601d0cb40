package probe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/process"

	"keepmeprivate/internal/status"
)

// ProcessLister samples CPU usage for every process and returns the busiest.
//
// CPU percentages are measured between consecutive calls, so the lister keeps
// the *process.Process handles it has seen. A process first seen during a
// call reports 0% for that call.
type ProcessLister struct {
	mu    sync.Mutex
	cache map[int32]*process.Process
}

// NewProcessLister creates a lister and takes the baseline CPU sample so the
// first Top call already reports meaningful percentages.
func NewProcessLister(ctx context.Context) *ProcessLister {
	lister := &ProcessLister{cache: make(map[int32]*process.Process)}
	_, _ = lister.sample(ctx)
	return lister
}

// Top returns at most limit processes sorted by CPU usage, highest first.
func (l *ProcessLister) Top(ctx context.Context, limit int) ([]status.ProcessInfo, error) {
	infos, err := l.sample(ctx)
	if err != nil {
		return nil, err
	}
	return rankProcesses(infos, limit), nil
}

func (l *ProcessLister) sample(ctx context.Context) ([]status.ProcessInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}

	seen := make(map[int32]struct{}, len(pids))
	infos := make([]status.ProcessInfo, 0, len(pids))
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[pid] = struct{}{}
		proc, ok := l.cache[pid]
		if !ok {
			proc, err = process.NewProcessWithContext(ctx, pid)
			if err != nil {
				continue
			}
			l.cache[pid] = proc
		}
		name, err := proc.NameWithContext(ctx)
		if err != nil || strings.TrimSpace(name) == "" {
			continue
		}
		cpu, err := proc.PercentWithContext(ctx, 0)
		if err != nil {
			cpu = 0
		}
		username, _ := proc.UsernameWithContext(ctx)
		infos = append(infos, status.ProcessInfo{
			PID:        pid,
			Name:       name,
			CPUPercent: cpu,
			Username:   username,
		})
	}
	for pid := range l.cache {
		if _, ok := seen[pid]; !ok {
			delete(l.cache, pid)
		}
	}
	return infos, nil
}

// rankProcesses sorts by CPU descending, then PID ascending, and truncates.
func rankProcesses(infos []status.ProcessInfo, limit int) []status.ProcessInfo {
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].CPUPercent != infos[j].CPUPercent {
			return infos[i].CPUPercent > infos[j].CPUPercent
		}
		return infos[i].PID < infos[j].PID
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos
}
