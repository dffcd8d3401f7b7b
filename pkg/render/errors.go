package render

import "errors"

var (
	// ErrInvalidStyle is returned when a Style fails validation.
	ErrInvalidStyle = errors.New("render: invalid style")
	// ErrTemplate is returned when the document template fails to execute.
	ErrTemplate = errors.New("render: failed to execute document template")
)
