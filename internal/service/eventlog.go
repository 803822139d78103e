package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"device_controller/internal/models"
	"device_controller/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (models.EventFilter, error) {
	out := models.EventFilter{
		Device: strings.TrimSpace(f.Device),
		From:   normalizeToUTC(f.From),
		To:     normalizeToUTC(f.To),
		Type:   strings.TrimSpace(strings.ToUpper(f.Type)),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return models.EventFilter{}, errInvalidTimeRange
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter)
}
