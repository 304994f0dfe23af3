package memory

import (
	"context"
	"sync"

	"countdown-quiz/internal/domain"
)

// ReportStore keeps submitted reports in process memory.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]domain.Report)}
}

func (s *ReportStore) SaveReport(_ context.Context, report domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.SessionID] = report
	return nil
}

func (s *ReportStore) GetReport(_ context.Context, sessionID string) (domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[sessionID]
	if !ok {
		return domain.Report{}, domain.ErrReportNotFound
	}
	return report, nil
}
