package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
)

type slotKey struct {
	gameID     string
	questionID string
}

type progressKey struct {
	userID     string
	categoryID string
}

// state is the whole grading dataset. Everything is stored by value so a
// shallow map copy is a full snapshot.
type state struct {
	games     map[string]domain.Game
	slots     map[slotKey]domain.GameQuestionSlot
	overrides map[int64]domain.AnswerOverride
	verdicts  []domain.AnswerVerdict
	progress  map[progressKey]domain.CategoryProgress
	disputes  map[int64]domain.Dispute

	nextOverrideID int64
	nextVerdictID  int64
	nextDisputeID  int64
}

func newState() *state {
	return &state{
		games:     make(map[string]domain.Game),
		slots:     make(map[slotKey]domain.GameQuestionSlot),
		overrides: make(map[int64]domain.AnswerOverride),
		progress:  make(map[progressKey]domain.CategoryProgress),
		disputes:  make(map[int64]domain.Dispute),
	}
}

func (s *state) clone() *state {
	c := &state{
		games:          make(map[string]domain.Game, len(s.games)),
		slots:          make(map[slotKey]domain.GameQuestionSlot, len(s.slots)),
		overrides:      make(map[int64]domain.AnswerOverride, len(s.overrides)),
		verdicts:       make([]domain.AnswerVerdict, len(s.verdicts)),
		progress:       make(map[progressKey]domain.CategoryProgress, len(s.progress)),
		disputes:       make(map[int64]domain.Dispute, len(s.disputes)),
		nextOverrideID: s.nextOverrideID,
		nextVerdictID:  s.nextVerdictID,
		nextDisputeID:  s.nextDisputeID,
	}
	for k, v := range s.games {
		c.games[k] = v
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.overrides {
		c.overrides[k] = v
	}
	copy(c.verdicts, s.verdicts)
	for k, v := range s.progress {
		c.progress[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	return c
}

// Store is an in-memory implementation of app.Store. Transactions run one at
// a time against a staged snapshot that replaces the live state only on
// success, giving the same all-or-nothing semantics as the Postgres store.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// PutGame seeds a live game; game creation itself belongs to the board
// builder, which is outside this engine.
func (s *Store) PutGame(g domain.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.games[g.ID] = g
}

// GameScore reads a game's current score outside any transaction (tests/demo).
func (s *Store) GameScore(gameID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.state.games[gameID]
	return g.CurrentScore, ok
}

// ProgressSnapshot reads a category rollup outside any transaction (tests/demo).
func (s *Store) ProgressSnapshot(userID, categoryID string) (domain.CategoryProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.progress[progressKey{userID, categoryID}]
	return p, ok
}

// VerdictSnapshot reads a user's verdicts for a question, oldest first (tests/demo).
func (s *Store) VerdictSnapshot(userID, questionID string) []domain.AnswerVerdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AnswerVerdict
	for _, v := range s.state.verdicts {
		if v.UserID == userID && v.QuestionID == questionID {
			out = append(out, v)
		}
	}
	return out
}

// OverrideCount reports how many overrides a question has (tests/demo).
func (s *Store) OverrideCount(questionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.state.overrides {
		if o.QuestionID == questionID {
			n++
		}
	}
	return n
}

func (s *Store) RunInTx(_ context.Context, fn func(tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&memTx{state: staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type memTx struct {
	state *state
}

func (t *memTx) Game(_ context.Context, gameID string) (*domain.Game, error) {
	g, ok := t.state.games[gameID]
	if !ok {
		return nil, domain.NotFoundf("game %s", gameID)
	}
	out := g
	return &out, nil
}

func (t *memTx) Slot(_ context.Context, gameID, questionID string) (*domain.GameQuestionSlot, error) {
	slot, ok := t.state.slots[slotKey{gameID, questionID}]
	if !ok {
		return nil, nil
	}
	out := slot
	return &out, nil
}

func (t *memTx) ClaimSlot(_ context.Context, slot *domain.GameQuestionSlot) (bool, error) {
	key := slotKey{slot.GameID, slot.QuestionID}
	if _, ok := t.state.slots[key]; ok {
		return false, nil
	}
	t.state.slots[key] = *slot
	return true, nil
}

func (t *memTx) MarkSlotCorrect(_ context.Context, gameID, questionID string, points int) error {
	key := slotKey{gameID, questionID}
	slot, ok := t.state.slots[key]
	if !ok {
		return domain.NotFoundf("slot %s/%s", gameID, questionID)
	}
	slot.Answered = true
	slot.Correct = true
	slot.Points = points
	t.state.slots[key] = slot
	return nil
}

func (t *memTx) AddGameScore(_ context.Context, gameID string, delta int) error {
	g, ok := t.state.games[gameID]
	if !ok {
		return domain.NotFoundf("game %s", gameID)
	}
	g.CurrentScore += delta
	t.state.games[gameID] = g
	return nil
}

func (t *memTx) GameSlotPoints(_ context.Context, gameID string) (int, error) {
	sum := 0
	for key, slot := range t.state.slots {
		if key.gameID == gameID && slot.Correct {
			sum += slot.Points
		}
	}
	return sum, nil
}

func (t *memTx) Overrides(_ context.Context, questionID string) ([]domain.AnswerOverride, error) {
	var out []domain.AnswerOverride
	for _, o := range t.state.overrides {
		if o.QuestionID == questionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) UpsertOverride(_ context.Context, o *domain.AnswerOverride) (*domain.AnswerOverride, error) {
	for _, existing := range t.state.overrides {
		if existing.QuestionID == o.QuestionID && existing.Text == o.Text {
			out := existing
			return &out, nil
		}
	}
	t.state.nextOverrideID++
	stored := *o
	stored.ID = t.state.nextOverrideID
	t.state.overrides[stored.ID] = stored
	return &stored, nil
}

func (t *memTx) InsertVerdict(_ context.Context, v *domain.AnswerVerdict) error {
	t.state.nextVerdictID++
	v.ID = t.state.nextVerdictID
	t.state.verdicts = append(t.state.verdicts, *v)
	return nil
}

func (t *memTx) SetVerdictOutcome(_ context.Context, verdictID int64, correct bool, points int) error {
	for i := range t.state.verdicts {
		if t.state.verdicts[i].ID == verdictID {
			t.state.verdicts[i].Correct = correct
			t.state.verdicts[i].Points = points
			return nil
		}
	}
	return domain.NotFoundf("verdict %d", verdictID)
}

func (t *memTx) LatestVerdict(_ context.Context, userID, questionID string) (*domain.AnswerVerdict, error) {
	for i := len(t.state.verdicts) - 1; i >= 0; i-- {
		v := t.state.verdicts[i]
		if v.UserID == userID && v.QuestionID == questionID {
			return &v, nil
		}
	}
	return nil, nil
}

func (t *memTx) IncorrectVerdicts(_ context.Context, userID, questionID string) ([]domain.AnswerVerdict, error) {
	var out []domain.AnswerVerdict
	for _, v := range t.state.verdicts {
		if v.UserID == userID && v.QuestionID == questionID && !v.Correct {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *memTx) HasCorrectPracticeVerdict(_ context.Context, userID, questionID string) (bool, error) {
	for _, v := range t.state.verdicts {
		if v.UserID == userID && v.QuestionID == questionID && v.Mode == domain.ModePractice && v.Correct {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) HasPracticeVerdict(_ context.Context, userID, questionID string) (bool, error) {
	for _, v := range t.state.verdicts {
		if v.UserID == userID && v.QuestionID == questionID && v.Mode == domain.ModePractice {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) PracticeVerdictsByCategory(_ context.Context, userID, categoryID string) ([]domain.AnswerVerdict, error) {
	var out []domain.AnswerVerdict
	for _, v := range t.state.verdicts {
		if v.UserID == userID && v.CategoryID == categoryID && v.Mode == domain.ModePractice {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *memTx) Progress(_ context.Context, userID, categoryID string) (*domain.CategoryProgress, error) {
	p, ok := t.state.progress[progressKey{userID, categoryID}]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (t *memTx) PutProgress(_ context.Context, p *domain.CategoryProgress) error {
	t.state.progress[progressKey{p.UserID, p.CategoryID}] = *p
	return nil
}

func (t *memTx) InsertDispute(_ context.Context, d *domain.Dispute) error {
	t.state.nextDisputeID++
	d.ID = t.state.nextDisputeID
	t.state.disputes[d.ID] = *d
	return nil
}

func (t *memTx) DisputeByID(_ context.Context, disputeID int64) (*domain.Dispute, error) {
	d, ok := t.state.disputes[disputeID]
	if !ok {
		return nil, nil
	}
	out := d
	return &out, nil
}

func (t *memTx) UpdateDispute(_ context.Context, d *domain.Dispute) error {
	if _, ok := t.state.disputes[d.ID]; !ok {
		return domain.NotFoundf("dispute %d", d.ID)
	}
	t.state.disputes[d.ID] = *d
	return nil
}

func (t *memTx) PendingDisputes(_ context.Context) ([]domain.Dispute, error) {
	var out []domain.Dispute
	for _, d := range t.state.disputes {
		if d.Status == domain.DisputePending {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
