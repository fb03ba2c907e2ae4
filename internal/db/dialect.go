package db

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/expensely/ledger/config"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor maps a configured driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return Postgres, nil
	case config.DriverSQLite:
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

func (d Dialect) String() string {
	return d.DriverName()
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
// SQLite markers are positional, so arguments must be bound in order.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

var numberedParam = regexp.MustCompile(`\$\d+`)

// Rebind rewrites a query written with $n markers for the dialect. Queries
// passed to Rebind must reference each argument once, in ascending order.
func (d Dialect) Rebind(query string) string {
	if d == Postgres {
		return query
	}
	return numberedParam.ReplaceAllString(query, "?")
}
