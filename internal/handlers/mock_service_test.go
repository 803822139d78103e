package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"device_controller/internal/models"
	"device_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// service mocks

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	mu         sync.Mutex
	state      models.DeviceSnapshot
	list       []models.DeviceSnapshot
	err        error
	lastDevice string
}

func (m *mockMonitoring) GetState(ctx context.Context, device string) (models.DeviceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDevice = device
	return m.state, m.err
}

func (m *mockMonitoring) ListStates(ctx context.Context) ([]models.DeviceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list, m.err
}

type mockEventLog struct {
	resp       []models.DeviceEvent
	err        error
	lastDevice string
	lastFrom   time.Time
	lastTo     time.Time
	lastType   string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastDevice = f.Device
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// helpers

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
