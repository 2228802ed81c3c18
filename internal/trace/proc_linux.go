//go:build linux

package trace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// inspectExec reads the post-exec image of a tracee stopped at an exec
// event. The kernel freezes the process for the duration of the stop, so
// the three /proc reads observe one consistent state. Returns nil when the
// executable is not a compiler.
func (t *ptraceTracer) inspectExec(pid int) (*ExecEvent, error) {
	procPath := filepath.Join("/proc", strconv.Itoa(pid))

	exe, err := os.Readlink(filepath.Join(procPath, "exe"))
	if err != nil {
		return nil, fmt.Errorf("readlink %s/exe: %w", procPath, err)
	}
	slog.Debug("observed exec", "pid", pid, "exe", exe)

	if !t.cfg.IsCompiler(exe) {
		return nil, nil
	}

	cwd, err := os.Readlink(filepath.Join(procPath, "cwd"))
	if err != nil {
		return nil, fmt.Errorf("readlink %s/cwd: %w", procPath, err)
	}

	data, err := os.ReadFile(filepath.Join(procPath, "cmdline"))
	if err != nil {
		return nil, fmt.Errorf("read %s/cmdline: %w", procPath, err)
	}
	argv, err := parseCmdline(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s/cmdline: %w", procPath, err)
	}

	return &ExecEvent{
		PID:        pid,
		Executable: exe,
		WorkingDir: cwd,
		Argv:       argv,
	}, nil
}
