package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/eventsphere/internal/dependencies/mocks"
	"github.com/mcoot/eventsphere/internal/metrics"
	"github.com/mcoot/eventsphere/internal/services/auth"
	"github.com/mcoot/eventsphere/internal/storage/memory"
)

// Admin credentials accepted by a TestApp
const (
	TestAdminUsername = "admin"
	TestAdminPassword = "correct horse battery staple"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Memory is the backing store, for direct assertions
	Memory *memory.Storage

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	// MinCost keeps login tests fast
	hash, err := bcrypt.GenerateFromPassword([]byte(TestAdminPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	authCfg := auth.DefaultConfig()
	authCfg.AdminUsername = TestAdminUsername
	authCfg.AdminPasswordHash = string(hash)
	authCfg.CookieSecret = []byte("test-cookie-secret")

	app, err := newWithDependencies(store, store, mockClock, mockRandom, metrics.New(), authCfg, nil)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		Memory:     store,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
