package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/salesdesk/salesdesk/internal/assistant"
)

// Responder runs the assistant loop for one conversation. Implemented
// by *assistant.Assistant.
type Responder interface {
	Respond(ctx context.Context, req assistant.Request, stream assistant.StreamFunc) (*assistant.Result, error)
}

type chatRequest struct {
	Messages []assistant.ChatMessage `json:"messages"`
	System   string                  `json:"system,omitempty"`
	Model    string                  `json:"model,omitempty"`
}

// handleChat streams the assistant's answer as plain text. Errors are
// plain text too; once the first chunk has been written the status is
// committed and a late failure just terminates the body.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.credentialErr != "" {
		http.Error(w, s.credentialErr, http.StatusInternalServerError)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "cuerpo de la solicitud inválido", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "se requiere al menos un mensaje", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	flusher, canFlush := w.(http.Flusher)

	streamed := false
	stream := func(_ context.Context, chunk string) error {
		if chunk == "" {
			return nil
		}
		if !streamed {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			streamed = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	res, err := s.responder.Respond(ctx, assistant.Request{
		Messages: req.Messages,
		System:   req.System,
		Model:    req.Model,
	}, stream)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			// Client went away; nothing left to tell it.
			return
		}
		requestID, _ := requestIDFromContext(ctx)
		s.logger.Error("chat request failed", "error", err, "request_id", requestID)
		if !streamed {
			http.Error(w, "error interno al generar la respuesta", http.StatusInternalServerError)
		}
		return
	}

	if !streamed {
		// Model answered without emitting chunks; send the text whole.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, werr := w.Write([]byte(res.Text)); werr != nil {
			s.logger.Debug("writing chat response", "error", werr)
		}
	}
}
