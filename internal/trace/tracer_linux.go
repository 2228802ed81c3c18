//go:build linux

package trace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"golang.org/x/sys/unix"
)

// seizeOptions makes the kernel auto-attach every descendant created by
// clone/fork/vfork, stop each tracee at exec, and kill the whole tree if
// the tracer itself dies.
const seizeOptions = unix.PTRACE_O_TRACECLONE |
	unix.PTRACE_O_TRACEFORK |
	unix.PTRACE_O_TRACEVFORK |
	unix.PTRACE_O_TRACEEXEC |
	unix.PTRACE_O_EXITKILL

// ptraceTracer supervises a build tree with ptrace. Single-threaded: the
// only multiplexing is the kernel's wait queue.
type ptraceTracer struct {
	cfg Config
}

func newPtraceTracer(cfg Config) (*ptraceTracer, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("empty build command")
	}
	if cfg.IsCompiler == nil {
		return nil, errors.New("no compiler predicate configured")
	}
	if cfg.OnCompile == nil {
		return nil, errors.New("no compile sink configured")
	}
	return &ptraceTracer{cfg: cfg}, nil
}

func (t *ptraceTracer) Run() (Status, error) {
	// Ptrace stops of every tracee are delivered to the seizing thread,
	// and subsequent ptrace requests must come from it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	root, err := t.start()
	if err != nil {
		return Status{}, err
	}
	return t.loop(root)
}

// start launches the rendezvous child, seizes it, and releases it. The
// child is the current binary re-executed as the shim; it blocks on the
// pipe until the seize has succeeded, so its exec of the build command is
// the first observable event and nothing escapes untraced.
func (t *ptraceTracer) start() (int, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return 0, fmt.Errorf("pipe: %w", err)
	}
	defer r.Close()

	shim := t.cfg.ShimArgs
	if len(shim) == 0 {
		shim = []string{"child"}
	}
	args := make([]string, 0, len(shim)+len(t.cfg.Command))
	args = append(args, shim...)
	args = append(args, t.cfg.Command...)

	cmd := exec.Command("/proc/self/exe", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{r} // rendezvous read end, fd 3 in the child

	if err := cmd.Start(); err != nil {
		w.Close()
		return 0, fmt.Errorf("start child: %w", err)
	}
	pid := cmd.Process.Pid

	if err := seize(pid, seizeOptions); err != nil {
		w.Close()
		_ = cmd.Process.Kill()
		return 0, fmt.Errorf("ptrace(PTRACE_SEIZE) pid %d: %w", pid, err)
	}

	// signal to the child that everything is set up
	if _, err := w.Write([]byte{0}); err != nil {
		_ = cmd.Process.Kill()
		w.Close()
		return 0, fmt.Errorf("rendezvous write: %w", err)
	}
	w.Close()

	return pid, nil
}

// seize attaches without stopping the tracee. x/sys/unix has no wrapper for
// PTRACE_SEIZE, so the request is issued directly.
func seize(pid int, options uintptr) error {
	if _, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SEIZE,
		uintptr(pid), 0, options, 0, 0); errno != 0 {
		return errno
	}
	return nil
}

// loop reaps wait events for the whole tree until the root terminates.
func (t *ptraceTracer) loop(root int) (Status, error) {
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(-1, &ws, 0, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ECHILD) {
				// No more children, yet the root's termination
				// was never reported.
				return Status{}, errors.New("lost track of the build root")
			}
			return Status{}, fmt.Errorf("wait4: %w", err)
		}

		switch {
		case ws.Exited(), ws.Signaled():
			slog.Debug("process terminated", "pid", pid)
			if pid == root {
				if ws.Exited() {
					return Status{Code: ws.ExitStatus()}, nil
				}
				return Status{Signal: ws.Signal()}, nil
			}
			// Traced descendants are reaped by their own parents
			// inside the build tree.

		case ws.Stopped():
			if err := t.resume(pid, ws); err != nil {
				return Status{}, err
			}

		case ws.Continued():
			slog.Debug("process continued", "pid", pid)

		default:
			return Status{}, fmt.Errorf("unexpected wait status %#x for pid %d", uint32(ws), pid)
		}
	}
}

// resume classifies a stop and continues the tracee, unless the stop was a
// compiler exec, in which case the tracee has already been detached.
func (t *ptraceTracer) resume(pid int, ws unix.WaitStatus) error {
	sig := ws.StopSignal()
	slog.Debug("process stopped", "pid", pid, "signal", sig)
	if sig == unix.SIGTRAP {
		detached, err := t.handleTrap(pid, int(uint32(ws))>>16)
		if err != nil {
			return err
		}
		if detached {
			return nil
		}
		// The event must not be re-delivered as a signal.
		sig = 0
	} else {
		slog.Debug("forwarding signal", "pid", pid, "signal", sig)
	}

	if err := unix.PtraceCont(pid, int(sig)); err != nil {
		return fmt.Errorf("ptrace(PTRACE_CONT) pid %d: %w", pid, err)
	}
	return nil
}

// handleTrap demultiplexes a SIGTRAP stop on its ptrace event code.
func (t *ptraceTracer) handleTrap(pid, event int) (detached bool, err error) {
	switch event {
	case unix.PTRACE_EVENT_EXEC:
		ev, err := t.inspectExec(pid)
		if err != nil {
			return false, err
		}
		if ev == nil {
			// not a compiler; resume it like any other stop
			return false, nil
		}
		// Detach before handing the event on: the captured compiler
		// must not stay frozen behind the tracer loop. ESRCH means it
		// already exited, which is a normal termination.
		if err := unix.PtraceDetach(pid); err != nil && !errors.Is(err, unix.ESRCH) {
			return false, fmt.Errorf("ptrace(PTRACE_DETACH) pid %d: %w", pid, err)
		}
		t.cfg.OnCompile(*ev)
		return true, nil

	case unix.PTRACE_EVENT_CLONE, unix.PTRACE_EVENT_FORK, unix.PTRACE_EVENT_VFORK, unix.PTRACE_EVENT_STOP:
		return false, nil

	default:
		return false, fmt.Errorf("unknown ptrace stop event %d for pid %d", event, pid)
	}
}

// Compile-time interface check
var _ Tracer = (*ptraceTracer)(nil)
