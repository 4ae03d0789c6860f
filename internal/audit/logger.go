package audit

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event represents an audit log event for an administrative or security
// relevant OAuth2 action.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	Client    string    `json:"client,omitempty"`
	User      string    `json:"user,omitempty"`
	Target    string    `json:"target,omitempty"`
	Details   string    `json:"details,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

var auditLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// SetOutput redirects audit events, mainly for tests.
func SetOutput(w io.Writer) {
	auditLogger = zerolog.New(w).With().Timestamp().Logger()
}

// Log records an audit event.
func Log(e Event, err error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err != nil {
		e.Error = err.Error()
	}

	entry, marshalErr := json.Marshal(e)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Msg("Failed to marshal audit event to JSON")
		auditLogger.Error().
			Str("service", e.Service).
			Str("action", e.Action).
			Str("client", e.Client).
			Str("target", e.Target).
			Bool("success", e.Success).
			Err(err).
			Msg("Audit Log (fallback)")
		return
	}
	auditLogger.Log().RawJSON("audit_event", entry).Msg("")
}
