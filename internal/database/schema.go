package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Timestamps are RFC 3339 strings and token expiries are unix seconds, so the
// same statements run unchanged on MySQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		uid           VARCHAR(36)  NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    VARCHAR(40)  NOT NULL,
		CONSTRAINT uq_accounts_email UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         VARCHAR(36)  NOT NULL PRIMARY KEY,
		uid        VARCHAR(36)  NOT NULL,
		email      VARCHAR(255) NOT NULL,
		name       VARCHAR(255) NOT NULL,
		nickname   VARCHAR(64)  NOT NULL,
		created_at VARCHAR(40)  NOT NULL,
		updated_at VARCHAR(40)  NOT NULL,
		CONSTRAINT uq_users_uid UNIQUE (uid),
		CONSTRAINT uq_users_nickname UNIQUE (nickname)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		token_hash VARCHAR(64) NOT NULL PRIMARY KEY,
		user_id    VARCHAR(36) NOT NULL,
		expires_at BIGINT      NOT NULL,
		revoked_at BIGINT      NULL
	)`,
	`CREATE TABLE IF NOT EXISTS password_resets (
		token_hash VARCHAR(64) NOT NULL PRIMARY KEY,
		user_id    VARCHAR(36) NOT NULL,
		expires_at BIGINT      NOT NULL,
		used_at    BIGINT      NULL
	)`,
	`CREATE TABLE IF NOT EXISTS captures (
		id          VARCHAR(36)   NOT NULL PRIMARY KEY,
		user_id     VARCHAR(36)   NOT NULL,
		species     VARCHAR(255)  NOT NULL,
		weight      DOUBLE        NOT NULL,
		size        DOUBLE        NOT NULL,
		date        VARCHAR(32)   NOT NULL,
		weather     VARCHAR(255)  NOT NULL,
		image       VARCHAR(1024) NOT NULL,
		latitude    DOUBLE        NOT NULL,
		longitude   DOUBLE        NOT NULL,
		description TEXT          NOT NULL,
		created_at  VARCHAR(40)   NOT NULL,
		updated_at  VARCHAR(40)   NOT NULL
	)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are created plainly
// and an existing index is not an error.
var indexes = []string{
	`CREATE INDEX idx_captures_user_created ON captures (user_id, created_at)`,
}

// Migrate creates the tables and indexes used by the service when they do
// not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil && !indexExists(err) {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	return nil
}

// indexExists reports whether err says the index is already there.  MySQL
// reports error 1061, SQLite reports "index ... already exists".
func indexExists(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1061
	}
	return strings.Contains(err.Error(), "already exists")
}
