package reconcile

import "fmt"

// Outcome is the normalized result of reconciling one resource.
type Outcome struct {
	// Changed reports whether a mutating call was issued (or, in check
	// mode, would have been).
	Changed bool

	// Msg is a human-readable summary of what happened.
	Msg string

	// Resource is the kind-specific payload, usually the re-fetched
	// remote snapshot.
	Resource any
}

// ConflictError reports an ambiguous natural-key lookup: more than one
// remote resource matched where uniqueness is expected. Never resolved
// automatically.
type ConflictError struct {
	Kind    string
	Key     string
	Matches int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d %ss match %q, expected at most one", e.Matches, e.Kind, e.Key)
}
