package repository

import (
	"context"
	"database/sql"
	"time"

	"device_controller/internal/models"
)

// Operators stores the accounts allowed to use the monitoring API.
type Operators interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// StateRepo mirrors the latest snapshot of each device for monitoring.
// It is write-mostly; nothing restores an engine from it.
type StateRepo interface {
	Save(ctx context.Context, s models.DeviceSnapshot) error
	Load(ctx context.Context, device string) (models.DeviceSnapshot, error)
	List(ctx context.Context) ([]models.DeviceSnapshot, error)
	Reset(ctx context.Context) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, f models.EventFilter) ([]models.DeviceEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Operators Operators
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Operators: NewOperatorSQLite(db),
	}
}

// timestampLayout is how times are written to TIMESTAMP columns so that
// string comparison in SQLite orders them correctly.
const timestampLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(t time.Time) string { return t.UTC().Format(timestampLayout) }
