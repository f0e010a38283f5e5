package ai

import "errors"

// ErrUnavailable marks a provider that is missing credentials or otherwise
// cannot serve requests. Callers use it to distinguish dependency failures
// from normal empty results.
var ErrUnavailable = errors.New("ai provider unavailable")
