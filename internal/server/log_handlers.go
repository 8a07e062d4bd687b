package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/pkg/logger"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// LogHandlers serves recent log lines from the in-memory ring buffer.
type LogHandlers struct {
	buffer *logger.RingBuffer
	log    zerolog.Logger
}

// NewLogHandlers creates a new log handlers instance. buffer may be nil,
// in which case no entries are ever returned.
func NewLogHandlers(buffer *logger.RingBuffer, log zerolog.Logger) *LogHandlers {
	return &LogHandlers{
		buffer: buffer,
		log:    log.With().Str("handler", "logs").Logger(),
	}
}

// LogsResponse represents log content
type LogsResponse struct {
	Entries []logger.Entry `json:"entries"`
	Total   int            `json:"total"`
}

// HandleRecentLogs returns the newest buffered entries, oldest first.
// GET /api/logs/recent?limit=&source=&level=
//
// source matches the component/client/handler/job field of a line; level
// keeps entries at or above the given level.
func (h *LogHandlers) HandleRecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, h.log, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxLogLimit)
	}

	minLevel := zerolog.NoLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			writeError(w, h.log, http.StatusBadRequest, "unknown level")
			return
		}
		minLevel = lvl
	}
	source := r.URL.Query().Get("source")

	entries := make([]logger.Entry, 0)
	if h.buffer != nil {
		var candidates []logger.Entry
		if source != "" {
			candidates = h.buffer.BySource(source)
		} else {
			candidates = h.buffer.Recent(0)
		}
		for _, e := range candidates {
			if minLevel != zerolog.NoLevel && !atLeast(e.Level, minLevel) {
				continue
			}
			entries = append(entries, e)
		}
		if len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	}

	writeJSON(w, h.log, http.StatusOK, LogsResponse{Entries: entries, Total: len(entries)})
}

func atLeast(level string, minLevel zerolog.Level) bool {
	lvl, err := zerolog.ParseLevel(level)
	return err == nil && lvl != zerolog.NoLevel && lvl >= minLevel
}
