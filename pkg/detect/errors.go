package detect

import "errors"

// Detector error classification.
var (
	// ErrRecoverable indicates a per-frame anomaly that should be treated
	// as "no match this frame". Examples: a tail frame too short for the
	// transform, a frame of non-finite samples.
	ErrRecoverable = errors.New("recoverable detector error")

	// ErrFatal indicates a failure that cannot be recovered by skipping
	// the frame. Examples: invalid configuration, corrupted input stream.
	ErrFatal = errors.New("fatal detector error")
)

// IsRecoverable reports whether err should be treated as "no match this frame".
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrRecoverable)
}

// IsFatal reports whether err should abort processing of the file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// FrameError wraps an underlying error with a recoverability class.
type FrameError struct {
	Underlying  error
	Recoverable bool
	Message     string
}

func (e *FrameError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Underlying.Error()
}

func (e *FrameError) Unwrap() error {
	if e.Recoverable {
		return ErrRecoverable
	}
	return ErrFatal
}

// NewRecoverableError creates a recoverable frame error with context.
func NewRecoverableError(underlying error, message string) error {
	return &FrameError{Underlying: underlying, Recoverable: true, Message: message}
}

// NewFatalError creates a fatal frame error with context.
func NewFatalError(underlying error, message string) error {
	return &FrameError{Underlying: underlying, Recoverable: false, Message: message}
}
