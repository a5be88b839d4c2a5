// Package repository defines error types that are reused across
// repositories.  These sentinel values let higher layers tell failure
// scenarios apart without inspecting driver errors.  For example,
// ErrConflict signals that a row with the same key already exists, such as
// a second decision recorded for the same task.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an insert collides with an existing row.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// translate maps driver errors onto the sentinels above.
func translate(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return ErrConflict
	}
	return err
}
