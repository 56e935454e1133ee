package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_proxy/internal/app"
	"review_proxy/internal/domain"
)

type Handlers struct {
	Reviews        *app.ReviewService
	UploadsEnabled bool
}

type msgBody struct {
	Msg      string          `json:"msg"`
	Upstream json.RawMessage `json:"upstream,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", healthz)
	s.mux.Get("/reviews", h.listReviews)
	s.mux.Post("/reviews", h.replyToReview)
	s.mux.Get("/reviews/{reviewId}", h.getReview)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeMsg(w http.ResponseWriter, status int, b msgBody) {
	out, err := json.Marshal(b)
	if err != nil {
		log.Error().Err(err).Msg("marshal msg body failed")
		out = []byte(`{"msg":"internal error"}`)
	}
	writeJSON(w, status, out)
}

// statusOf maps the error taxonomy onto HTTP.
func statusOf(de *domain.Error) int {
	switch de.Kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindNotImplemented:
		return http.StatusNotImplemented
	case domain.KindCredentialUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindAuthenticationFailed:
		return http.StatusBadGateway
	case domain.KindUpstreamUnavailable:
		return http.StatusGatewayTimeout
	case domain.KindUpstreamError:
		if de.Status >= 400 && de.Status <= 599 {
			return de.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unclassified error")
		writeMsg(w, http.StatusInternalServerError, msgBody{Msg: "internal error"})
		return
	}
	status := statusOf(de)
	if status >= 500 {
		log.Error().Err(err).Str("kind", string(de.Kind)).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeMsg(w, status, msgBody{Msg: de.Msg, Upstream: de.Body})
}

// requireQuery returns the first missing name, in order, or "".
func requireQuery(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if q.Get(n) == "" {
			return n
		}
	}
	return ""
}

func missing(field string) error {
	return domain.BadRequest("Missing " + field + " from request query")
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	if f := requireQuery(r, "packageName"); f != "" {
		writeError(w, r, missing(f))
		return
	}
	q := r.URL.Query()
	out, err := h.Reviews.List(r.Context(), domain.ReviewQuery{
		PackageName:         q.Get("packageName"),
		Token:               q.Get("token"),
		MaxResults:          q.Get("maxResults"),
		StartIndex:          q.Get("startIndex"),
		TranslationLanguage: q.Get("translationLanguage"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	if f := requireQuery(r, "packageName"); f != "" {
		writeError(w, r, missing(f))
		return
	}
	out, err := h.Reviews.Get(r.Context(), r.URL.Query().Get("packageName"), chi.URLParam(r, "reviewId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) replyToReview(w http.ResponseWriter, r *http.Request) {
	// The flag wins over validation: a disabled upload path never looks at input.
	if !h.UploadsEnabled {
		writeError(w, r, domain.NotImplemented("POST method not implemented"))
		return
	}
	if f := requireQuery(r, "packageName", "reviewId", "text"); f != "" {
		writeError(w, r, missing(f))
		return
	}
	q := r.URL.Query()
	out, err := h.Reviews.Reply(r.Context(), domain.ReplyPayload{
		PackageName: q.Get("packageName"),
		ReviewID:    q.Get("reviewId"),
		ReplyText:   q.Get("text"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
