package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"countdown-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches answer keys from a backing store (files, Postgres).
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches raw answer keys in Redis and falls back to a
// loader on cache miss.
// Keys are stored as: SET quiz:{quizID}:answers {body} EX {ttl}
type AnswerKeyRepository struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewAnswerKeyRepository(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	key := r.answersKey(quizID)

	if body, err := r.client.Get(ctx, key).Result(); err == nil {
		return domain.AnswerKey{QuizID: quizID, Body: body}, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it. Any Redis
		// error other than a miss falls through to the loader.
		if body, err := r.client.Get(ctx, key).Result(); err == nil {
			return domain.AnswerKey{QuizID: quizID, Body: body}, nil
		}

		answerKey, err := r.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		_ = r.client.Set(ctx, key, answerKey.Body, r.ttlWithJitter()).Err()
		return answerKey, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached key, e.g. after an import.
func (r *AnswerKeyRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, r.answersKey(quizID)).Err()
}

func (r *AnswerKeyRepository) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
