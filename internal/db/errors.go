package db

import "errors"

// ErrNotFound is returned by repositories when a document does not exist.
// "Found but empty" is a successful read; backend I/O failures are returned
// as distinct wrapped errors.
var ErrNotFound = errors.New("document not found")
