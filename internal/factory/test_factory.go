package factory

import (
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/mocks"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/memory"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

// TestSecret signs the tokens issued by a TestApp
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// Concrete stores for direct inspection
	MemoryStorage *memory.Storage
	MemoryRecords *memory.Records
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	records := memory.NewRecords()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := withDefaults(Config{})
	cfg.Auth.Secret = []byte(TestSecret)

	app := newWithDependencies(store, records, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MemoryStorage: store,
		MemoryRecords: records,
	}
}
