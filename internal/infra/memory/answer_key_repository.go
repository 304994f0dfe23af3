package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches answer keys from a backing store (files, Postgres).
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository parses answer keys on load and caches the parsed
// answers with a jittered TTL. Keys that fail to parse are never cached, so
// a corrected source is picked up on the next start.
type AnswerKeyRepository struct {
	loader    AnswerKeyLoader
	questions int
	ttl       time.Duration
	clock     func() time.Time
	sf        singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]answerEntry
}

type answerEntry struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyRepository(loader AnswerKeyLoader, questions int, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		loader:    loader,
		questions: questions,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		entries:   make(map[string]answerEntry),
	}
}

// GetAnswerKey returns the key with Answers holding the first questions values.
func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	if key, ok := r.lookup(quizID); ok {
		return key, nil
	}

	v, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if key, ok := r.lookup(quizID); ok {
			return key, nil
		}
		key, err := r.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		answers, err := app.ParseAnswerKey(key.Body, r.questions)
		if err != nil {
			return domain.AnswerKey{}, fmt.Errorf("answer key %q: %w", quizID, err)
		}
		key.Answers = answers

		r.mu.Lock()
		r.entries[quizID] = answerEntry{key: key, expiresAt: r.clock().Add(r.expiry())}
		r.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return v.(domain.AnswerKey), nil
}

// Invalidate drops the cached answers of quizID.
func (r *AnswerKeyRepository) Invalidate(quizID string) {
	r.mu.Lock()
	delete(r.entries, quizID)
	r.mu.Unlock()
}

func (r *AnswerKeyRepository) lookup(quizID string) (domain.AnswerKey, bool) {
	now := r.clock()
	r.mu.RLock()
	entry, ok := r.entries[quizID]
	r.mu.RUnlock()
	if !ok || !entry.expiresAt.After(now) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

// expiry is the TTL plus up to 10% jitter.
func (r *AnswerKeyRepository) expiry() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(int64(r.ttl)/10+1))
}

// StaticAnswerKeyLoader serves answer keys from an in-memory map (tests/demos).
type StaticAnswerKeyLoader struct {
	bodies map[string]string
}

func NewStaticAnswerKeyLoader(bodies map[string]string) *StaticAnswerKeyLoader {
	return &StaticAnswerKeyLoader{bodies: bodies}
}

func (l *StaticAnswerKeyLoader) LoadAnswerKey(_ context.Context, quizID string) (domain.AnswerKey, error) {
	if body, ok := l.bodies[quizID]; ok {
		return domain.AnswerKey{QuizID: quizID, Body: body}, nil
	}
	return domain.AnswerKey{}, domain.ErrQuizNotFound
}
