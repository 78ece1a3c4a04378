package rnn

import "errors"

// ErrInvalidArgument reports a cell configuration rejected at
// construction: keep probabilities outside (0, 1], nil inner cells,
// non-positive layer sizes, or mismatched layer chaining. Constructors
// return it immediately so callers can correct the configuration and
// retry; test with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")
