package service

import (
	"context"
	"time"

	"device_controller/internal/models"
	"device_controller/internal/repository"
)

// Authorization manages operator accounts and their bearer tokens.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes read-only device state.
type Monitoring interface {
	GetState(ctx context.Context, device string) (models.DeviceSnapshot, error)
	ListStates(ctx context.Context) ([]models.DeviceSnapshot, error)
}

// EventLog exposes the append-only device journal with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Simulator feeds simulated sensor readings to the thermostat.
// Stop via context cancellation for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// LogFilter supports history filtering by device, time range and type.
type LogFilter struct {
	Device string    // "" means every device
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "TRANSITION", "REJECTED", "NOTICE"
}

// Updates streams device snapshots as engines step.
type Updates interface {
	Subscribe(device string) (<-chan models.DeviceSnapshot, func())
}

// Service aggregates the sub-services used by the HTTP layer.
type Service struct {
	Monitoring
	EventLog
	Authorization
	Updates Updates // optional; nil means clients only get polled state
}

func NewService(repos *repository.Repository, devices *Devices, feed *Feed, auth AuthConfig) *Service {
	s := &Service{
		Monitoring:    NewMonitoringService(repos.StateRepo, devices),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Operators, auth),
	}
	if feed != nil {
		s.Updates = feed
	}
	return s
}
