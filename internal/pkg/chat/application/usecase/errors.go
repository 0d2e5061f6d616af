package usecase

import "errors"

// ErrStore indicates that a persistence call failed or timed out inside a
// use case. Nothing was persisted, so the sender may retry the exact same
// command; the gateway itself never retries a write.
var ErrStore = errors.New("chat use case: store unavailable")
