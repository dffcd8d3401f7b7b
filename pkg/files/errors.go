package files

import "errors"

var (
	ErrInvalidName     = errors.New("files: invalid file name")
	ErrUnsupportedType = errors.New("files: unsupported file type")
	ErrFileTooLarge    = errors.New("files: file is too large")
	ErrEmptyFile       = errors.New("files: file is empty")
	ErrEncoding        = errors.New("files: text is not valid UTF-8")
	ErrExecutable      = errors.New("files: executable content")
	ErrImage           = errors.New("files: cannot decode image")
	ErrImageTooLarge   = errors.New("files: image dimensions exceed the limit")
)
