//go:build !linux

package trace

import "errors"

func newPlatformTracer(cfg Config) (Tracer, error) {
	return nil, errors.New("process tracing requires linux with ptrace")
}
