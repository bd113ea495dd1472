package usecase

import "errors"

var (
	// ErrBookIDRequired is returned when the request names no book.
	ErrBookIDRequired = errors.New("book id is required")

	// ErrBookNotFound is returned when the book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrAssetMissing is returned when the book exists but has no stored file.
	ErrAssetMissing = errors.New("book file is not available")

	// ErrNotEntitled is returned when the caller has not purchased the book.
	ErrNotEntitled = errors.New("book not purchased")
)
