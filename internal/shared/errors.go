package shared

import "errors"

// ErrActorInvalid indicates the forwarded user id could not be parsed.
var ErrActorInvalid = errors.New("actor invalid")
