package coach

import "errors"

// ErrMalformedResult is returned when the model's output lacks a reply or
// any usable scores, even after repair.
var ErrMalformedResult = errors.New("malformed assessment")
