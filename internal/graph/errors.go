package graph

import "errors"

// Build and evaluation errors for the computation graph.
var (
	// ErrWindow indicates a tap window that is not a positive integer
	// multiple of the sample time.
	ErrWindow = errors.New("graph: window is not a positive multiple of the sample time")

	// ErrDuplicate indicates a signal, block, output, or loss name that
	// is already registered.
	ErrDuplicate = errors.New("graph: duplicate name")

	// ErrUnknownSignal indicates a bound series is missing a registered signal.
	ErrUnknownSignal = errors.New("graph: unknown signal")

	// ErrShortHistory indicates a bound series shorter than the history
	// its signal requires.
	ErrShortHistory = errors.New("graph: history shorter than required window")

	// ErrArity indicates an op wired with the wrong number of inputs.
	ErrArity = errors.New("graph: op input count does not match arity")

	// ErrBadRef indicates a zero-valued or out-of-range block reference.
	ErrBadRef = errors.New("graph: invalid reference")

	// ErrFutureRef indicates a one-step-ahead tap used outside a loss target.
	ErrFutureRef = errors.New("graph: shifted tap allowed only as a loss target")
)

// BuildError wraps a build defect with the name of the offending element.
type BuildError struct {
	Element string
	Wrapped error
}

func (e *BuildError) Error() string {
	return e.Element + ": " + e.Wrapped.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Wrapped
}
