package dedupe

import "errors"

// ErrConflict is returned when a request id is reused for a different request.
var ErrConflict = errors.New("request id reused for a different request")
