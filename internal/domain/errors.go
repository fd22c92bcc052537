package domain

import "errors"

// Error taxonomy for the clearance engine. Every failure surfaced by the
// store, the stage machine, or the gates wraps exactly one of these
// sentinels so callers can branch with errors.Is.
var (
	// ErrValidation marks malformed operator input to create or update.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown clearance record, risk factor, document
	// type, or background check component.
	ErrNotFound = errors.New("not found")

	// ErrInvalidMutation marks an attempt to mutate derived or frozen state,
	// such as updating a record that already reached a terminal status.
	ErrInvalidMutation = errors.New("invalid mutation")

	// ErrStageNotActive marks a decision submitted against a stage that is
	// not the single in-progress stage.
	ErrStageNotActive = errors.New("stage not active")

	// ErrPrerequisiteNotMet marks an investigation approval attempted while
	// background checks are unfinished or adverse.
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")

	// ErrRiskGate marks a final approval blocked by an unresolved critical
	// risk factor.
	ErrRiskGate = errors.New("risk gate blocked")

	// ErrDataIntegrity marks corrupt stored state, typically an enum value
	// outside its domain.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrConcurrentModification marks a lost compare-and-swap race; the
	// caller re-reads and retries.
	ErrConcurrentModification = errors.New("concurrent modification")
)
