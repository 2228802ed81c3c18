package trace

import "syscall"

// Tracer launches a build command under kernel process tracing and reports
// every compiler exec observed anywhere in its process tree.
type Tracer interface {
	// Run launches the command, supervises the tree until the root
	// terminates, and returns its termination state.
	Run() (Status, error)
}

// Config configures the tracer.
type Config struct {
	// Command is the build command; Command[0] is resolved through PATH.
	Command []string

	// IsCompiler classifies the executable path of every observed exec.
	IsCompiler func(path string) bool

	// OnCompile receives each compiler invocation. It is called from the
	// tracer loop, after the compiler process has been detached.
	OnCompile func(ExecEvent)

	// ShimArgs is the argument vector (after the executable itself) that
	// re-invokes the current binary as the rendezvous child. It defaults
	// to the hidden "child" CLI command; tests install their own hook.
	ShimArgs []string
}

// Status is the reaped termination state of the build root.
type Status struct {
	// Code is the exit code when the root exited normally.
	Code int
	// Signal is the terminating signal, zero when the root exited normally.
	Signal syscall.Signal
}

// Signaled reports whether the root was killed by a signal.
func (s Status) Signaled() bool {
	return s.Signal != 0
}
