package database

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DialectType names a supported backend.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// dialect holds the SQL differences the fact store cares about.
type dialect struct {
	kind   DialectType
	driver string

	// numbered selects $1, $2 placeholders over ?.
	numbered bool
	// returningID reads inserted ids with RETURNING instead of LastInsertId.
	returningID bool

	serialKey       string
	setup           []string
	uniqueViolation []string
}

var dialects = map[DialectType]dialect{
	DialectSQLite: {
		kind:      DialectSQLite,
		driver:    "sqlite",
		serialKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
		setup: []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
		},
		uniqueViolation: []string{"UNIQUE constraint failed"},
	},
	DialectPostgres: {
		kind:            DialectPostgres,
		driver:          "postgres",
		numbered:        true,
		returningID:     true,
		serialKey:       "BIGSERIAL PRIMARY KEY",
		setup:           []string{"SET TIME ZONE 'UTC'"},
		uniqueViolation: []string{"duplicate key", "23505", "unique constraint"},
	},
}

// dialectFor looks up a backend. An empty name means SQLite.
func dialectFor(kind DialectType) (dialect, error) {
	if kind == "" {
		kind = DialectSQLite
	}
	d, ok := dialects[kind]
	if !ok {
		return dialect{}, fmt.Errorf("database: unknown driver %q", kind)
	}
	return d, nil
}

// rebind rewrites ? placeholders for numbered backends. Question marks inside
// single-quoted literals are left alone.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// insertID rebinds an INSERT and, where needed, asks it to return id.
func (d dialect) insertID(query string) string {
	query = d.rebind(query)
	if d.returningID {
		query += " RETURNING id"
	}
	return query
}

func (d dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range d.uniqueViolation {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
