package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Answerer produces an answer string for a question. Implementations never
// fail; errors are pre-formatted into the answer text itself.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// NewRouter builds the HTTP handler for the question-answering service.
func NewRouter(engine Answerer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/ask", func(w http.ResponseWriter, req *http.Request) {
		var body askRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			slog.Debug("rejecting malformed ask request", "err", err)
			writeAnswer(w, http.StatusBadRequest, "ERROR: invalid request body")
			return
		}

		answer := engine.Answer(req.Context(), body.Question)
		writeAnswer(w, http.StatusOK, answer)
	})

	return r
}

// writeAnswer always responds with the answer-string shape; the endpoint
// never returns a structured error object.
func writeAnswer(w http.ResponseWriter, status int, answer string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(askResponse{Answer: answer})
}
