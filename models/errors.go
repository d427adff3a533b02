package models

import "errors"

// Failure kinds surfaced by an export run. All of them abort the run.
var (
	ErrContainerNotFound = errors.New("library not found")
	ErrOutputExists      = errors.New("output directory already exists")
	ErrDirectoryCreate   = errors.New("cannot create directory")
	ErrRemoteRead        = errors.New("cannot read remote file")
	ErrLocalWrite        = errors.New("cannot write local file")
)
