package storage

import "errors"

var (
	// ErrNoDirectory indicates an FS substrate was opened without a directory.
	ErrNoDirectory = errors.New("storage: directory is required")

	// ErrNoBucket indicates an S3 substrate was opened without a bucket.
	ErrNoBucket = errors.New("storage: bucket is required")

	// ErrNoDatabaseURL indicates a LibSQL substrate was opened without a URL.
	ErrNoDatabaseURL = errors.New("storage: database url is required")
)
