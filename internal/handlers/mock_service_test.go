package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"greenguile/internal/models"
	"greenguile/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, _ string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, _ string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockController struct {
	status models.DeviceStatus
}

func (m *mockController) Activate(context.Context)                      {}
func (m *mockController) Deactivate(context.Context)                    {}
func (m *mockController) SetSeason(context.Context, models.Season) error { return nil }
func (m *mockController) RunCycle(context.Context) error                { return nil }
func (m *mockController) IsActive() bool                                { return m.status.Active }
func (m *mockController) Season() models.Season                         { return m.status.Season }
func (m *mockController) Status() models.DeviceStatus                   { return m.status }

type mockDispatcher struct {
	mu    sync.Mutex
	reply string
	texts []string
}

func (m *mockDispatcher) Process(_ context.Context, raw string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, raw)
	return m.reply
}

type mockSettings struct {
	snap   models.Settings
	setErr error

	lastKey   string
	lastValue any
}

func (m *mockSettings) Get(key string, def any) any {
	if v, ok := m.snap.Lookup(key); ok {
		return v
	}
	return def
}

func (m *mockSettings) Set(_ context.Context, key string, value any) error {
	m.lastKey, m.lastValue = key, value
	if m.setErr != nil {
		return m.setErr
	}
	return m.snap.Apply(key, value)
}

func (m *mockSettings) Snapshot() models.Settings { return m.snap.Clone() }

type mockPatterns struct {
	counts    map[models.Season]int
	reloadErr error
	reloads   int
}

func (m *mockPatterns) Reload(context.Context) error {
	m.reloads++
	return m.reloadErr
}

func (m *mockPatterns) Counts() map[models.Season]int { return m.counts }

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, cfg).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeaders(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
