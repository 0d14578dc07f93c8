package config

import "errors"

// ErrConfigVersionTooNew means the config file declares a schema version
// newer than this build understands.
var ErrConfigVersionTooNew = errors.New("config version is newer than supported")
