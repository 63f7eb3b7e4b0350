package ingestion

import "errors"

// ErrPromotionValidation is returned when a promotion draft fails the L2
// acceptance rules (wrong type, no claims). Wrapped with the rejection
// reason via fmt.Errorf("%w: %s", ...) at the call site.
var ErrPromotionValidation = errors.New("ingestion: promotion validation failed")
