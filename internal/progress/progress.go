// Package progress persists in-flight attempt state so a student can
// resume after a reload or crash. Each user holds at most one
// checkpoint per attempt kind; anonymous users get a no-op store.
package progress

import (
	"encoding/json"
	"log/slog"

	"github.com/ekaraca/hazirlik/internal/model"
)

// Store saves and restores attempt checkpoints. Implementations scope
// everything by user and kind; a userID of zero means anonymous and
// every operation is a silent no-op with Load reporting absence.
type Store interface {
	// Save replaces the checkpoint for the user/kind pair.
	Save(userID int64, kind model.SessionKind, state *model.SessionState) error
	// Load returns the stored state, or (nil, nil) when absent. A
	// checkpoint that fails to decode is treated as absent, never as
	// an error.
	Load(userID int64, kind model.SessionKind) (*model.SessionState, error)
	// Clear removes the checkpoint for the user/kind pair.
	Clear(userID int64, kind model.SessionKind) error
}

func marshalState(state *model.SessionState) ([]byte, error) {
	return json.Marshal(state)
}

// unmarshalState decodes a checkpoint payload. Corrupt payloads log and
// report absence so a broken checkpoint can never block a fresh start.
func unmarshalState(userID int64, kind model.SessionKind, payload []byte) *model.SessionState {
	if len(payload) == 0 {
		return nil
	}
	var state model.SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		slog.Warn("discarding unreadable checkpoint", "user", userID, "kind", kind, "error", err)
		return nil
	}
	if state.AttemptID == "" {
		slog.Warn("discarding checkpoint without attempt id", "user", userID, "kind", kind)
		return nil
	}
	return &state
}
