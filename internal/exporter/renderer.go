package exporter

import (
	"context"

	"classtable-backend/internal/timetable"
	"classtable-backend/internal/upstream"
)

// Renderer produces a serialized calendar feed for a (student, term) pair.
type Renderer interface {
	Render(ctx context.Context, studentID, termID string) ([]byte, error)
}

// FeedRenderer is the production Renderer: it resolves the term against the
// catalog, pulls the timetable from the academic-records API and compiles
// the feed.
type FeedRenderer struct {
	Catalog  *timetable.Catalog
	Upstream *upstream.Client
	Builder  *timetable.Builder
}

// Render implements Renderer.
func (r *FeedRenderer) Render(ctx context.Context, studentID, termID string) ([]byte, error) {
	term, err := r.Catalog.Term(termID)
	if err != nil {
		return nil, err
	}
	tt, err := r.Upstream.Timetable(ctx, studentID, termID)
	if err != nil {
		return nil, err
	}
	return r.Builder.Build(tt.StudentName, term, tt.Patterns)
}
