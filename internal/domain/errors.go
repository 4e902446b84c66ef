// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrServerStopped indicates the analysis server connection is gone.
var ErrServerStopped = errors.New("analysis server stopped")
