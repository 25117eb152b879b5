package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/gorilla/websocket"
)

// Handler is the thin request layer over the grading engine.
type Handler struct {
	engine   *app.Engine
	upgrader websocket.Upgrader
}

func NewHandler(engine *app.Engine) *Handler {
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register wires the handler's routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/grade", h.grade)
	mux.HandleFunc("POST /api/disputes", h.submitDispute)
	mux.HandleFunc("GET /api/disputes", h.pendingDisputes)
	mux.HandleFunc("POST /api/disputes/{id}/approve", h.approveDispute)
	mux.HandleFunc("POST /api/disputes/{id}/reject", h.rejectDispute)
	mux.HandleFunc("GET /api/questions/{id}/overrides", h.listOverrides)
	mux.HandleFunc("POST /api/questions/{id}/overrides", h.addOverride)
	mux.HandleFunc("GET /ws/games", h.watchGame)
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	var req app.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request: %v", err))
		return
	}
	result, err := h.engine.Grade(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type disputeRequest struct {
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
	RawAnswer  string `json:"rawAnswer"`
	GameID     string `json:"gameId,omitempty"`
}

func (h *Handler) submitDispute(w http.ResponseWriter, r *http.Request) {
	var req disputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request: %v", err))
		return
	}
	id, err := h.engine.SubmitDispute(r.Context(), req.UserID, req.QuestionID, req.RawAnswer, req.GameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"disputeId": id})
}

func (h *Handler) pendingDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.engine.PendingDisputes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, disputes)
}

type resolveRequest struct {
	ResolverID   string `json:"resolverId"`
	Note         string `json:"note,omitempty"`
	OverrideText string `json:"overrideText,omitempty"`
}

func (h *Handler) approveDispute(w http.ResponseWriter, r *http.Request) {
	disputeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, domain.Validationf("malformed dispute id"))
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request: %v", err))
		return
	}
	if err := h.engine.ApproveDispute(r.Context(), disputeID, req.ResolverID, req.Note, req.OverrideText); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectDispute(w http.ResponseWriter, r *http.Request) {
	disputeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, domain.Validationf("malformed dispute id"))
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request: %v", err))
		return
	}
	if err := h.engine.RejectDispute(r.Context(), disputeID, req.ResolverID, req.Note); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type overrideRequest struct {
	AdminID string `json:"adminId"`
	Text    string `json:"text"`
	Note    string `json:"note,omitempty"`
}

func (h *Handler) addOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request: %v", err))
		return
	}
	override, err := h.engine.AddOverride(r.Context(), req.AdminID, r.PathValue("id"), req.Text, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, override)
}

func (h *Handler) listOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.engine.ListOverrides(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overrides)
}

// watchGame upgrades the connection and streams score snapshots for a game.
func (h *Handler) watchGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		http.Error(w, "missing gameId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.engine.Feed().Subscribe(gameID)
	defer cancel()

	initial, err := h.engine.GameScore(r.Context(), gameID)
	if err != nil {
		_ = conn.WriteJSON(errorPayload{Message: err.Error()})
		return
	}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	// Reader goroutine only detects close; no inbound protocol.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case score, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(score); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConsistency):
		// logged loudly; the transaction already rolled back
		log.Printf("consistency failure: %v", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
