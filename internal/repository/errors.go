package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate reports that an insert hit a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

// duplicateOr maps unique violations to ErrDuplicate and returns other errors untouched.
func duplicateOr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
