package trace

// New creates a platform-appropriate tracer.
// On Linux, uses ptrace with the seize discipline.
// Other platforms are unsupported.
func New(cfg Config) (Tracer, error) {
	return newPlatformTracer(cfg)
}
