package model

import "errors"

// ErrNotFound is returned by stores when a venue or decision does not exist
var ErrNotFound = errors.New("not found")
