package batchloader

import "errors"

var (
	// ErrNoContext is returned by For when no Context has been installed in
	// the given context.Context (i.e. the caller is not inside Run).
	ErrNoContext = errors.New("batchloader: no Context in scope")

	// ErrDrainActive is returned by RunWith when the Context is already
	// being drained by a concurrent run.
	ErrDrainActive = errors.New("batchloader: drain already in progress for this Context")

	// ErrRunFinished is returned when a Context is used after its single
	// drain pass has completed. A Context is not reusable across runs.
	ErrRunFinished = errors.New("batchloader: Context already finished its run")
)
