package service

import (
	"context"
	"errors"

	"device_controller/internal/models"
	"device_controller/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
	devices   *Devices
}

func NewMonitoringService(stateRepo repository.StateRepo, devices *Devices) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, devices: devices}
}

// GetState returns the latest mirrored snapshot of a device. A registered
// device that has not stepped yet is reported in its initial state.
func (s *MonitoringService) GetState(ctx context.Context, device string) (models.DeviceSnapshot, error) {
	dev, err := s.devices.Get(device)
	if err != nil {
		return models.DeviceSnapshot{}, err
	}
	snap, err := s.stateRepo.Load(ctx, device)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownDevice) {
			return baseline(dev), nil
		}
		return models.DeviceSnapshot{}, err
	}
	return snap, nil
}

// ListStates returns one snapshot per registered device, sorted by name.
func (s *MonitoringService) ListStates(ctx context.Context) ([]models.DeviceSnapshot, error) {
	stored, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.DeviceSnapshot, len(stored))
	for _, snap := range stored {
		byName[snap.Device] = snap
	}

	out := make([]models.DeviceSnapshot, 0, len(stored))
	for _, name := range s.devices.Names() {
		if snap, ok := byName[name]; ok {
			out = append(out, snap)
			continue
		}
		dev, _ := s.devices.Get(name)
		out = append(out, baseline(dev))
	}
	return out, nil
}

// baseline reads the live state without facts; facts belong to the
// device's owner goroutine and are only published through the mirror.
func baseline(dev Device) models.DeviceSnapshot {
	return models.DeviceSnapshot{
		Device: dev.Device(),
		Kind:   dev.Kind(),
		State:  dev.State(),
	}
}
