package redis

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches immutable question content from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionRepository caches question content in Redis (hash per question) and
// falls back to a loader on cache miss. Fields are stored as:
// HSET question:{id} answer {canonical} value {face} round {round} category {id} stumper {0|1}
// Only immutable content is cached; override sets and aggregates never are.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	key := r.key(questionID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return questionFromFields(questionID, fields), nil
	}

	result, err, _ := r.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return questionFromFields(questionID, fields), nil
		}

		question, err := r.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		stumper := "0"
		if question.TripleStumper {
			stumper = "1"
		}
		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key,
			"answer", question.CanonicalAnswer,
			"value", question.FaceValue,
			"round", string(question.Round),
			"category", question.CategoryID,
			"stumper", stumper,
		)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *QuestionRepository) key(questionID string) string {
	return "question:" + questionID
}

func questionFromFields(questionID string, fields map[string]string) domain.Question {
	value, _ := strconv.Atoi(fields["value"])
	return domain.Question{
		ID:              questionID,
		CanonicalAnswer: fields["answer"],
		FaceValue:       value,
		Round:           domain.Round(fields["round"]),
		CategoryID:      fields["category"],
		TripleStumper:   fields["stumper"] == "1",
	}
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
