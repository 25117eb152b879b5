package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/btuckerc/jeopardy-sub005/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.PutGame(domain.Game{ID: "g1", OwnerID: "u1"})

	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string]domain.Question{
		"q1": {
			ID:              "q1",
			CanonicalAnswer: "Mount (Mt.) Everest",
			FaceValue:       400,
			Round:           domain.RoundSingle,
			CategoryID:      "geography",
		},
	}), time.Minute)
	identity := memory.NewStaticIdentity([]string{"admin"})

	engine := app.NewEngine(store, questions, identity)
	handler := NewHandler(engine)

	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func TestGradeEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	body, _ := json.Marshal(app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q1",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mt. Everest",
	})
	resp, err := http.Post(server.URL+"/api/grade", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post grade: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.GradeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.Correct || result.Points != 400 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.CanDispute {
		t.Fatalf("correct verdict must not be disputable")
	}
}

func TestGradeEndpointValidation(t *testing.T) {
	server, _ := newTestServer(t)

	body, _ := json.Marshal(app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q1",
		Mode:       "BOGUS",
		Round:      domain.RoundSingle,
		RawAnswer:  "x",
	})
	resp, err := http.Post(server.URL+"/api/grade", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post grade: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWatchGameReceivesScoreUpdates(t *testing.T) {
	server, _ := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws/games?gameId=g1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives first; it also guarantees the subscription
	// is registered before we grade.
	var initial domain.GameScore
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if initial.CurrentScore != 0 {
		t.Fatalf("expected zero initial score, got %+v", initial)
	}

	// Grade a correct game-mode answer; the feed should push the new score.
	body, _ := json.Marshal(app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q1",
		Mode:       domain.ModeGame,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mount Everest",
		GameID:     "g1",
	})
	resp, err := http.Post(server.URL+"/api/grade", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post grade: %v", err)
	}
	resp.Body.Close()

	var score domain.GameScore
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&score); err != nil {
		t.Fatalf("read score: %v", err)
	}
	if score.GameID != "g1" || score.CurrentScore != 400 {
		t.Fatalf("unexpected score %+v", score)
	}
}

func TestDisputeEndpointsConflictOnResolved(t *testing.T) {
	server, _ := newTestServer(t)

	// Wrong answer first so a dispute is possible.
	grade, _ := json.Marshal(app.GradeRequest{
		UserID:     "u2",
		QuestionID: "q1",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "K2",
	})
	resp, err := http.Post(server.URL+"/api/grade", "application/json", bytes.NewReader(grade))
	if err != nil {
		t.Fatalf("post grade: %v", err)
	}
	resp.Body.Close()

	dispute, _ := json.Marshal(map[string]string{
		"userId":     "u2",
		"questionId": "q1",
		"rawAnswer":  "K2",
	})
	resp, err = http.Post(server.URL+"/api/disputes", "application/json", bytes.NewReader(dispute))
	if err != nil {
		t.Fatalf("post dispute: %v", err)
	}
	var created map[string]int64
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	reject, _ := json.Marshal(map[string]string{"resolverId": "admin", "note": "not the same peak"})
	url := server.URL + "/api/disputes/1/reject"
	resp, err = http.Post(url, "application/json", bytes.NewReader(reject))
	if err != nil {
		t.Fatalf("post reject: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// Second resolution is a conflict.
	reject, _ = json.Marshal(map[string]string{"resolverId": "admin"})
	resp, err = http.Post(url, "application/json", bytes.NewReader(reject))
	if err != nil {
		t.Fatalf("post reject: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
