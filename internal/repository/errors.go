package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict means a conditional update matched no rows
	// because another writer advanced the row's version first.
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate record")
)
