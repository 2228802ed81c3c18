package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// AwaitAndExec is the child half of the launch rendezvous: block on one
// byte from the inherited pipe until the tracer reports it is attached,
// then replace this process image with the build command. It only returns
// on error; the caller must exit non-zero without running any parent logic.
func AwaitAndExec(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty build command")
	}

	pipe := os.NewFile(3, "rendezvous")
	if pipe == nil {
		return errors.New("rendezvous descriptor missing")
	}
	var b [1]byte
	if _, err := io.ReadFull(pipe, b[:]); err != nil {
		return fmt.Errorf("rendezvous read: %w", err)
	}
	pipe.Close()

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return err
	}
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
