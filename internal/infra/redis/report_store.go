package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"countdown-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ReportStore keeps submitted reports in Redis as JSON with a TTL so any
// instance can serve the download.
type ReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportStore(client *redis.Client, ttl time.Duration) *ReportStore {
	return &ReportStore{client: client, ttl: ttl}
}

func (s *ReportStore) SaveReport(ctx context.Context, report domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(report.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func (s *ReportStore) GetReport(ctx context.Context, sessionID string) (domain.Report, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Report{}, domain.ErrReportNotFound
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("load report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}

func (s *ReportStore) key(sessionID string) string {
	return "quiz:report:" + sessionID
}
