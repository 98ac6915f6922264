package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stagecue/stagecue/internal/observe"
	"github.com/stagecue/stagecue/internal/scene"
)

// speakRequest is the body of POST /v1/speak.
type speakRequest struct {
	// Speaker names who is addressing the scene.
	Speaker string `json:"speaker"`

	// Line is the utterance to route to a character.
	Line string `json:"line"`
}

// cueRequest is the body of POST /v1/cue.
type cueRequest struct {
	// Direction is a stage direction broadcast to every unmuted character.
	Direction string `json:"direction"`
}

// errorResponse is the JSON body for API failures.
type errorResponse struct {
	Error string `json:"error"`
}

// registerAPI adds the performance API routes to mux.
func (a *App) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/speak", a.handleSpeak)
	mux.HandleFunc("POST /v1/cue", a.handleCue)
	mux.HandleFunc("GET /v1/characters", a.handleCharacters)
}

// handleSpeak routes one line into the scene and returns the addressed
// character's performance.
func (a *App) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Line == "" {
		writeAPIJSON(w, http.StatusBadRequest, errorResponse{Error: "line must not be empty"})
		return
	}
	if req.Speaker == "" {
		req.Speaker = "Player"
	}

	perf, err := a.stage.Speak(r.Context(), req.Speaker, req.Line)
	switch {
	case errors.Is(err, scene.ErrNoTarget):
		writeAPIJSON(w, http.StatusUnprocessableEntity,
			errorResponse{Error: "no character addressed; name one of the scene members"})
		return
	case err != nil:
		observe.Logger(r.Context()).Error("speak failed", "speaker", req.Speaker, "err", err)
		writeAPIJSON(w, http.StatusBadGateway, errorResponse{Error: "performance failed"})
		return
	}

	writeAPIJSON(w, http.StatusOK, perf)
}

// handleCue broadcasts a stage direction and returns every resulting
// performance in member order.
func (a *App) handleCue(w http.ResponseWriter, r *http.Request) {
	var req cueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Direction == "" {
		writeAPIJSON(w, http.StatusBadRequest, errorResponse{Error: "direction must not be empty"})
		return
	}

	perfs, err := a.stage.Cue(r.Context(), req.Direction)
	if err != nil {
		observe.Logger(r.Context()).Error("cue failed", "err", err)
		writeAPIJSON(w, http.StatusBadGateway, errorResponse{Error: "cue failed"})
		return
	}

	writeAPIJSON(w, http.StatusOK, perfs)
}

// handleCharacters lists every stored character definition.
func (a *App) handleCharacters(w http.ResponseWriter, r *http.Request) {
	defs, err := a.store.List(r.Context(), r.URL.Query().Get("troupe"))
	if err != nil {
		observe.Logger(r.Context()).Error("list characters failed", "err", err)
		writeAPIJSON(w, http.StatusInternalServerError, errorResponse{Error: "store unavailable"})
		return
	}
	writeAPIJSON(w, http.StatusOK, defs)
}

// writeAPIJSON encodes v as JSON with the given status code.
func writeAPIJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "err", err)
	}
}
