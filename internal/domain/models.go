package domain

import "time"

// Round identifies which board a question came from.
type Round string

const (
	RoundSingle Round = "SINGLE"
	RoundDouble Round = "DOUBLE"
	RoundFinal  Round = "FINAL"
)

// ValidRound reports whether r is one of the known rounds.
func ValidRound(r Round) bool {
	switch r {
	case RoundSingle, RoundDouble, RoundFinal:
		return true
	}
	return false
}

// Mode distinguishes live-game scoring from untimed practice.
type Mode string

const (
	ModeGame     Mode = "GAME"
	ModePractice Mode = "PRACTICE"
)

// ValidMode reports whether m is a known grading mode.
func ValidMode(m Mode) bool {
	return m == ModeGame || m == ModePractice
}

// OverrideSource records how an accepted answer variant entered the store.
type OverrideSource string

const (
	SourceDispute OverrideSource = "DISPUTE"
	SourceAdmin   OverrideSource = "ADMIN"
)

// DisputeStatus is the lifecycle state of a grading dispute.
type DisputeStatus string

const (
	DisputePending  DisputeStatus = "PENDING"
	DisputeApproved DisputeStatus = "APPROVED"
	DisputeRejected DisputeStatus = "REJECTED"
)

// Role gates dispute resolution and override curation.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the identity view resolved by the session collaborator.
type User struct {
	ID   string
	Role Role
}

// Question is immutable trivia content; grading never mutates it.
type Question struct {
	ID              string `json:"id"`
	CanonicalAnswer string `json:"canonicalAnswer"`
	FaceValue       int    `json:"faceValue"`
	Round           Round  `json:"round"`
	CategoryID      string `json:"categoryId"`
	// TripleStumper marks questions every original contestant missed.
	TripleStumper bool `json:"tripleStumper"`
}

// AnswerOverride is an additional accepted answer text for one question.
// Text is stored already normalized; (QuestionID, Text) is unique.
type AnswerOverride struct {
	ID         int64
	QuestionID string
	Text       string
	Source     OverrideSource
	CreatedBy  string
	Note       string
	CreatedAt  time.Time
}

// AnswerVerdict is one grading event. RawAnswer is never rewritten; the
// retroactive pass may flip Correct and Points, and it rescores using the
// mode/round/value context captured here at grading time.
type AnswerVerdict struct {
	ID             int64
	UserID         string
	QuestionID     string
	CategoryID     string
	GameID         string // empty in practice mode
	Mode           Mode
	Round          Round
	FaceValue      int
	DisplayedValue int
	RawAnswer      string
	Correct        bool
	Points         int
	CreatedAt      time.Time
}

// GameQuestionSlot is the per-(game, question) board cell. Points holds what
// the slot contributed to the game score, so the score invariant is checkable.
type GameQuestionSlot struct {
	GameID     string
	QuestionID string
	Answered   bool
	Correct    bool
	Points     int
	AnsweredAt time.Time
}

// Game holds the running score for a live session.
// Invariant: CurrentScore equals the sum of Points over its slots marked correct.
type Game struct {
	ID           string
	OwnerID      string
	CurrentScore int
	CreatedAt    time.Time
}

// CategoryProgress is the per-(user, category) rollup.
// Derived entirely from that user's practice-context verdicts.
type CategoryProgress struct {
	UserID     string
	CategoryID string
	Total      int
	Correct    int
	Points     int
	UpdatedAt  time.Time
}

// Dispute is a user claim that an incorrect verdict should have been accepted.
type Dispute struct {
	ID              int64
	UserID          string
	QuestionID      string
	GameID          string // empty when the disputed grade was practice-mode
	SubmittedAnswer string
	Status          DisputeStatus
	ResolvedBy      string
	ResolutionNote  string
	OverrideID      int64 // set when approval produced/reused an override
	CreatedAt       time.Time
	ResolvedAt      time.Time
}

// GradeResult is what a grade call returns to the caller. Achievements are
// passed through from the external evaluator and carry no invariants.
type GradeResult struct {
	Correct      bool     `json:"correct"`
	Points       int      `json:"points"`
	CanDispute   bool     `json:"canDispute"`
	Achievements []string `json:"achievements,omitempty"`
}

// GameScore is the snapshot pushed on the live score feed.
type GameScore struct {
	GameID       string    `json:"gameId"`
	CurrentScore int       `json:"currentScore"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
