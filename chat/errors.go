package chat

import "errors"

// ErrMissingCredential is returned by New when no transport override is
// given and the configuration carries no API key.
var ErrMissingCredential = errors.New("missing API credential")
