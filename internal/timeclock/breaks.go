package timeclock

import (
	"encoding/json"
	"log/slog"
	"time"
)

// BreakSession is one paused interval inside an attendance day. BreakOut
// is nil while the break is still running. DurationMinutes is recorded
// when the break closes so historical rows stay readable even if the
// raw instants are later corrected.
type BreakSession struct {
	BreakIn         time.Time  `json:"break_in"`
	BreakOut        *time.Time `json:"break_out"`
	DurationMinutes int        `json:"duration_minutes"`
}

// NormalizeBreakSessions turns the persisted break column into a uniform
// slice. The storage layer hands back raw JSONB bytes which may be
// absent (NULL column), an empty array, or garbage left behind by an
// older writer. Malformed payloads are logged and treated as empty;
// they must never abort the caller's transaction.
//
// This is the single point that guarantees every downstream consumer
// sees a well-formed slice, so repositories do not decode the column
// themselves.
func NormalizeBreakSessions(raw []byte) []BreakSession {
	if len(raw) == 0 {
		return []BreakSession{}
	}

	var sessions []BreakSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		slog.Warn("timeclock: malformed break sessions payload, treating as empty", "error", err)
		return []BreakSession{}
	}
	if sessions == nil {
		return []BreakSession{}
	}
	return sessions
}

// OpenBreakIndex returns the index of the in-progress break session, or
// -1 when every session is closed. The lifecycle invariant is that at
// most one session is open at a time; if older data violates that, the
// first open session wins.
func OpenBreakIndex(sessions []BreakSession) int {
	for i, b := range sessions {
		if b.BreakOut == nil {
			return i
		}
	}
	return -1
}
