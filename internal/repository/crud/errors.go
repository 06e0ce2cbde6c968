package crud

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueFailed   = "UNIQUE constraint failed"
	pgForeignKeyViolated = "23503"
	mysqlForeignKeyFails = 1452
	sqliteForeignKey     = "FOREIGN KEY constraint failed"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// any supported driver.
func IsUniqueViolation(err error) bool {
	return matches(err, pgUniqueViolation, mysqlDuplicateEntry, sqliteUniqueFailed)
}

// IsForeignKeyViolation reports whether err is a foreign key violation on any
// supported driver.
func IsForeignKeyViolation(err error) bool {
	return matches(err, pgForeignKeyViolated, mysqlForeignKeyFails, sqliteForeignKey)
}

func matches(err error, pgCode string, mysqlNumber uint16, sqliteText string) bool {
	if err == nil {
		return false
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgCode
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNumber
	}
	return strings.Contains(err.Error(), sqliteText)
}
