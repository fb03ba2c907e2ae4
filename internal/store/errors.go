package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a unique constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteConstraint(liteErr, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE") ||
			liteConstraint(liteErr, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, "PRIMARY KEY")
	}
	return false
}

// isForeignKeyViolation reports whether err is a foreign key failure from
// either supported driver.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgForeignKeyViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteConstraint(liteErr, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
	}
	return false
}

// liteConstraint matches the extended result code, falling back to the
// message when only the primary SQLITE_CONSTRAINT code is reported.
func liteConstraint(err *sqlite.Error, extended int, label string) bool {
	if err.Code() == extended {
		return true
	}
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(err.Error(), label+" constraint failed")
}
