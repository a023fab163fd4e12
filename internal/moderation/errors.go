package moderation

import "errors"

// Sentinel errors returned by the enforcement surface. The engine matches
// them with errors.Is: a Forbidden is reported but never rolls back a ledger
// write, a NotFound at reversal time counts as already satisfied.
var (
	ErrForbidden = errors.New("moderation: missing permissions")
	ErrNotFound  = errors.New("moderation: target not found")
)
