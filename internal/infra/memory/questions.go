package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches immutable question content from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionRepository caches question content with TTL to avoid repeated DB
// hits. Questions are immutable, so caching them is safe; override sets and
// aggregates are never cached here.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[questionID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.question, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(questionID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[questionID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.question, nil
		}
		r.mu.RUnlock()

		question, err := r.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		r.mu.Lock()
		r.cache[questionID] = cachedQuestion{
			question:  question,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by an in-memory map
// (useful for tests/demos).
type StaticQuestionLoader struct {
	questions map[string]domain.Question
}

func NewStaticQuestionLoader(questions map[string]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestion(_ context.Context, questionID string) (domain.Question, error) {
	if q, ok := l.questions[questionID]; ok {
		return q, nil
	}
	return domain.Question{}, domain.NotFoundf("question %s", questionID)
}
