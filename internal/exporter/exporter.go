package exporter

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"classtable-backend/internal/store"
)

// Service renders calendar feeds and persists them as {token}.ics files. A
// small worker pool pre-renders feeds in the background when tokens are
// minted so that the later download is a plain file read; the download
// handler falls back to a synchronous Export when the artifact is missing.
type Service struct {
	dir      string
	size     int
	jobs     chan string
	store    store.Store
	renderer Renderer
}

// New creates an exporter writing into dir with a pool of size workers.
func New(dir string, size int, st store.Store, renderer Renderer) *Service {
	return &Service{
		dir:      dir,
		size:     size,
		jobs:     make(chan string, size), // Buffered channel
		store:    st,
		renderer: renderer,
	}
}

// Start launches the worker goroutines.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.size; i++ {
		go s.worker(ctx, i)
	}
}

func (s *Service) worker(ctx context.Context, id int) {
	log.Printf("Export worker %d started", id)
	for {
		select {
		case token := <-s.jobs:
			if _, err := s.Export(ctx, token); err != nil {
				log.Printf("Export worker %d: pre-render of %s failed: %v", id, token, err)
			}
		case <-ctx.Done():
			log.Printf("Export worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a token for background pre-rendering. When the queue is
// full the job is dropped rather than blocking the caller; the download
// handler renders on demand when no artifact exists.
func (s *Service) Dispatch(token string) {
	select {
	case s.jobs <- token:
	default:
		log.Printf("Export queue full, skipping pre-render of %s", token)
	}
}

// ArtifactPath returns the durable location of a token's feed.
func (s *Service) ArtifactPath(token string) string {
	return filepath.Join(s.dir, token+".ics")
}

// ArtifactExists reports whether a token's feed has already been rendered.
func (s *Service) ArtifactExists(token string) bool {
	_, err := os.Stat(s.ArtifactPath(token))
	return err == nil
}

// Export renders the feed behind a token and writes it to disk, returning
// the artifact path. The write goes through a temp file and rename so a
// failed render never leaves a partial feed behind.
func (s *Service) Export(ctx context.Context, token string) (string, error) {
	record, err := s.store.FindToken(ctx, token)
	if err != nil {
		return "", err
	}

	feed, err := s.renderer.Render(ctx, record.StudentID, record.TermID)
	if err != nil {
		return "", fmt.Errorf("failed to render feed for %s/%s: %w", record.StudentID, record.TermID, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create calendar dir: %w", err)
	}

	target := s.ArtifactPath(token)
	tmp, err := os.CreateTemp(s.dir, token+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp feed file: %w", err)
	}
	if _, err := tmp.Write(feed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write feed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close feed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move feed file into place: %w", err)
	}
	return target, nil
}
