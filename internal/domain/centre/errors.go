package centre

import "errors"

var (
	ErrCentreNotFound = errors.New("centre not found")
)
