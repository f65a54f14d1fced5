package log

// Verbosity is a diagnostic threshold in [0,1]. Zero silences the tracker's
// own diagnostics; one enables everything.
type Verbosity float64

const (
	// VerbosityLifecycle enables connect, disconnect and arm model messages.
	VerbosityLifecycle Verbosity = 0.5
	// VerbosityEvents additionally traces every emitted event.
	VerbosityEvents Verbosity = 0.7
)

// Clamp limits v to [0,1]. NaN becomes 0.
func (v Verbosity) Clamp() Verbosity {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (v Verbosity) Lifecycle() bool { return v.Clamp() >= VerbosityLifecycle }
func (v Verbosity) Events() bool    { return v.Clamp() >= VerbosityEvents }
