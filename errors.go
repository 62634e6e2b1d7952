package multivec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/multivec/group"
	"github.com/hupe1980/multivec/rangevec"
)

var (
	// ErrDuplicateVector is returned when a vector with the same name
	// already exists.
	ErrDuplicateVector = errors.New("vector already exists")

	// ErrUnknownVector is returned when no vector with the given name exists.
	ErrUnknownVector = errors.New("unknown vector")

	// ErrVectorNotEmpty is returned when destroying a vector that still
	// holds entries.
	ErrVectorNotEmpty = errors.New("vector is not empty")

	// ErrEmptyBatch is returned when InsertEntries is called with no items.
	// An empty batch would create a degenerate zero-member group.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrEntryNotFound is returned when no entry covers the given offset.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrRangeOutOfBounds is returned when an inserted range does not fit
	// in [0, capacity), including zero-size ranges.
	ErrRangeOutOfBounds = errors.New("range out of bounds")

	// ErrRangeOverlap is returned when an inserted range overlaps an
	// existing entry or an earlier item of the same batch.
	ErrRangeOverlap = errors.New("range overlap")

	// ErrInvariantViolation indicates that the group registry and the
	// vector table disagree about an entry's existence. It signals a bug in
	// multivec itself, never a caller mistake, and aborts the current
	// operation loudly instead of silently repairing state.
	ErrInvariantViolation = errors.New("internal invariant violation")
)

// translateError maps collaborator-level errors onto the public error
// contract. Unrecognized errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, rangevec.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrEntryNotFound, err)
	}
	if errors.Is(err, rangevec.ErrZeroSize) {
		return fmt.Errorf("%w: %w", ErrRangeOutOfBounds, err)
	}

	var be *rangevec.BoundsError
	if errors.As(err, &be) {
		return fmt.Errorf("%w: %w", ErrRangeOutOfBounds, err)
	}
	var oe *rangevec.OverlapError
	if errors.As(err, &oe) {
		return fmt.Errorf("%w: %w", ErrRangeOverlap, err)
	}

	if errors.Is(err, group.ErrNotTracked) {
		// An entry that exists in a vector must be tracked by a group.
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	return err
}
