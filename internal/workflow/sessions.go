package workflow

import (
	"context"
	"strings"

	"github.com/BY1502/ai-interview-service/pkg/model"
)

type ListStatus string

const (
	ListItems  ListStatus = "items"
	ListEmpty  ListStatus = "empty"
	ListFailed ListStatus = "failed"
)

type SessionListView struct {
	Filter string
	Status ListStatus
	Items  []model.SessionSummary
	Cause  error
}

type SessionList struct {
	backend Backend
}

func NewSessionList(b Backend) *SessionList {
	return &SessionList{backend: b}
}

// Load lists the client's sessions, filtered by company when filter is not
// blank. No match is the empty state, not a failure.
func (l *SessionList) Load(ctx context.Context, filter string) SessionListView {
	filter = strings.TrimSpace(filter)
	items, err := l.backend.ListSessions(ctx, filter)
	switch {
	case err != nil:
		return SessionListView{Filter: filter, Status: ListFailed, Cause: err}
	case len(items) == 0:
		return SessionListView{Filter: filter, Status: ListEmpty}
	}
	return SessionListView{Filter: filter, Status: ListItems, Items: items}
}
