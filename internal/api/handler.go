package api

import (
	"context"

	"classtable-backend/internal/exporter"
	"classtable-backend/internal/store"
	"classtable-backend/internal/timetable"
	"classtable-backend/internal/upstream"
)

// TimetableSource is the slice of the upstream client the handlers need.
type TimetableSource interface {
	Timetable(ctx context.Context, studentID, termID string) (*upstream.Timetable, error)
}

// Exporter renders feeds into durable {token}.ics artifacts.
type Exporter interface {
	Dispatch(token string)
	Export(ctx context.Context, token string) (string, error)
	ArtifactPath(token string) string
	ArtifactExists(token string) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	catalog  *timetable.Catalog
	upstream TimetableSource
	exporter Exporter
	renderer exporter.Renderer
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, catalog *timetable.Catalog, src TimetableSource, exp Exporter, renderer exporter.Renderer) *Handler {
	return &Handler{
		store:    s,
		catalog:  catalog,
		upstream: src,
		exporter: exp,
		renderer: renderer,
	}
}
