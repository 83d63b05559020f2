package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/session"
)

// Session is the part of a sign session the HTTP API drives.
type Session interface {
	Sentence() string
	Speak() bool
	Clear()
	Status(now time.Time) session.Snapshot
}

// SentenceHandler serves the sentence being built and the speak and
// clear commands.
type SentenceHandler struct {
	session Session
}

// NewSentenceHandler creates a SentenceHandler for sess.
func NewSentenceHandler(sess Session) *SentenceHandler {
	return &SentenceHandler{session: sess}
}

type sentenceResponse struct {
	Sentence string `json:"sentence"`
	Status   string `json:"status"`
}

// ServeHTTP routes /api/sentence, /api/sentence/speak and /api/sentence/clear.
// Speak and clear also answer GET for links and simple pages.
func (h *SentenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/sentence"), "/")

	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, sentenceResponse{Sentence: h.session.Sentence(), Status: "success"})

	case "speak":
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		status := "empty"
		if h.session.Speak() {
			status = "spoken"
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: status})

	case "clear":
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.session.Clear()
		writeJSON(w, http.StatusOK, statusResponse{Status: "cleared"})

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// StatusHandler serves the recognition status snapshot.
type StatusHandler struct {
	session Session
	now     func() time.Time
}

// NewStatusHandler creates a StatusHandler for sess.
func NewStatusHandler(sess Session) *StatusHandler {
	return &StatusHandler{session: sess, now: time.Now}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Status(h.now()))
}
