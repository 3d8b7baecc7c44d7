package progress

import (
	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/store"
)

// SQLiteStore keeps checkpoints in the application database.
type SQLiteStore struct {
	store *store.Store
}

// NewSQLiteStore wraps the application database as a checkpoint store.
func NewSQLiteStore(s *store.Store) *SQLiteStore {
	return &SQLiteStore{store: s}
}

func (s *SQLiteStore) Save(userID int64, kind model.SessionKind, state *model.SessionState) error {
	if userID == 0 {
		return nil
	}
	payload, err := marshalState(state)
	if err != nil {
		return err
	}
	return s.store.SaveCheckpoint(userID, string(kind), payload)
}

func (s *SQLiteStore) Load(userID int64, kind model.SessionKind) (*model.SessionState, error) {
	if userID == 0 {
		return nil, nil
	}
	payload, err := s.store.LoadCheckpoint(userID, string(kind))
	if err != nil {
		return nil, err
	}
	return unmarshalState(userID, kind, payload), nil
}

func (s *SQLiteStore) Clear(userID int64, kind model.SessionKind) error {
	if userID == 0 {
		return nil
	}
	return s.store.DeleteCheckpoint(userID, string(kind))
}
