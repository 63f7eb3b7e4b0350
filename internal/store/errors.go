package store

import "errors"

// ErrNotFound is returned when a referenced memory id or edge endpoint is
// absent. Callers convert this to the NOT_FOUND error code at
// the operation boundary.
var ErrNotFound = errors.New("store: not found")
