package remote

import (
	"context"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
)

// noopStore is the Store used when no remote endpoint is configured.
// Writes succeed without effect; reads report nothing stored.
type noopStore struct{}

// NewNoopStore returns a Store for offline use.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) StoreDaily(context.Context, string, string, *domain.DailyAggregate) error {
	return nil
}

func (noopStore) UpdateDaily(context.Context, string, string, int, *domain.TaskRef) error {
	return nil
}

func (noopStore) StoreSession(context.Context, string, string, *domain.Session) error {
	return nil
}

func (noopStore) UpdateSession(context.Context, string, string, string, SessionUpdate) error {
	return nil
}

func (noopStore) GetDaily(context.Context, string, string) (*domain.DailyAggregate, error) {
	return nil, ErrNotFound
}

func (noopStore) GetSessions(context.Context, string, string) ([]*domain.Session, error) {
	return nil, nil
}
