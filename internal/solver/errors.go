package solver

import "errors"

// ErrConfig marks configuration errors: degenerate instances, invalid
// parameter combinations, or a node left without candidates after candidate
// generation. These are reported before any search begins and are not
// recoverable.
var ErrConfig = errors.New("solver: configuration error")

// Internal-consistency violations (a gain that is not a multiple of the
// precision factor, a tour losing Hamiltonicity after a flip) indicate a logic
// defect and panic with diagnostic context rather than returning an error.
