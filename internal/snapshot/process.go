package snapshot

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/blackwell-systems/screentime/internal/errs"
)

// ProcessSource lists every running process and reports their names.
// It does not look at window focus: a process that is running counts as
// active.
type ProcessSource struct {
	// list is swapped out in tests.
	list func(ctx context.Context) ([]namedProcess, error)
}

// namedProcess is the subset of *process.Process the source needs.
type namedProcess interface {
	NameWithContext(ctx context.Context) (string, error)
}

// NewProcessSource returns a Source backed by the host process table.
func NewProcessSource() *ProcessSource {
	return &ProcessSource{list: listHostProcesses}
}

func listHostProcesses(ctx context.Context) ([]namedProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]namedProcess, 0, len(procs))
	for _, p := range procs {
		if p == nil || p.Pid <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Snapshot enumerates processes. Processes that exit or deny access while
// being read are skipped; only a failure to list the table is an error.
func (s *ProcessSource) Snapshot(ctx context.Context) (Snapshot, error) {
	procs, err := s.list(ctx)
	if err != nil {
		return Snapshot{}, &errs.SnapshotError{Source: "process table", Err: err}
	}

	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return New(names...), nil
}
