package history

import (
	"time"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/mock"
)

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(dataset, model string, seed uint64, startTime time.Time) (string, error) {
	args := m.Called(dataset, model, seed, startTime)
	return args.String(0), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID string, endTime time.Time, summary schema.RunSummary, records []schema.ErrorRecord) error {
	args := m.Called(runID, endTime, summary, records)
	return args.Error(0)
}

// FailRun implements the HistoryStore interface.
func (m *MockHistoryStore) FailRun(runID string, endTime time.Time, cause error) error {
	args := m.Called(runID, endTime, cause)
	return args.Error(0)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetSeriesErrors implements the HistoryStore interface.
func (m *MockHistoryStore) GetSeriesErrors(runID string) ([]schema.SeriesErrorRecord, error) {
	args := m.Called(runID)
	rows, _ := args.Get(0).([]schema.SeriesErrorRecord)
	return rows, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Clear implements the HistoryStore interface.
func (m *MockHistoryStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
