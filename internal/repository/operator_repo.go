package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"device_controller/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateOperator is returned by Create when the username is taken.
var ErrDuplicateOperator = errors.New("operator already exists")

type OperatorSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewOperatorSQLite(db *sql.DB) *OperatorSQLite {
	return &OperatorSQLite{db: db, now: time.Now}
}

var _ Operators = (*OperatorSQLite)(nil)

const (
	insertOperatorSQL = `INSERT INTO operators (username, password_hash, created_at) VALUES (?, ?, ?)`
	selectOperatorSQL = `SELECT id, username, password_hash, created_at FROM operators WHERE username = ?`
)

// Create inserts an operator and returns its ID.
func (r *OperatorSQLite) Create(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertOperatorSQL, username, passwordHash, formatTimestamp(r.now()))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert operator %q: %w", username, ErrDuplicateOperator)
		}
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id for operator %q: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) when no operator has that username.
func (r *OperatorSQLite) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.QueryRowContext(ctx, selectOperatorSQL, username).
		Scan(&op.ID, &op.Username, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	op.CreatedAt = op.CreatedAt.UTC()
	return &op, nil
}

// isUniqueViolation reports a UNIQUE constraint failure from the sqlite
// driver. The driver enables extended result codes on every connection.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
