// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// gateways and handlers to distinguish between different failure scenarios.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or is outside the
// caller's ownership scope.  Callers cannot tell the two apart.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an account with the same email exists.
var ErrEmailExists = errors.New("email already exists")

// ErrNicknameExists is returned when a profile with the same nickname exists.
var ErrNicknameExists = errors.New("nickname already exists")

// isDuplicate reports whether err is a unique-key violation and, if so,
// whether the offending key mentions column.  MySQL reports error 1062,
// SQLite reports "UNIQUE constraint failed: table.column".
func isDuplicate(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	var me *mysql.MySQLError
	dup := (errors.As(err, &me) && me.Number == 1062) ||
		strings.Contains(msg, "unique constraint failed")
	if !dup {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}
