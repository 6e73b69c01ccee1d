// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")

// ErrUnknownFilterField is returned when a filter names a field outside the allow-list.
var ErrUnknownFilterField = errors.New("unknown filter field")
