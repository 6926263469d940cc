package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"classtable-backend/internal/store"
	"classtable-backend/internal/timetable"
	"classtable-backend/internal/upstream"
)

const icsContentType = "text/calendar; charset=utf-8"

// DownloadICS handles GET /calendar/_ics/:token. The parameter is the
// token with an ".ics" suffix; the feed artifact is served from disk,
// rendering it on the spot when the background pre-render has not landed
// yet.
func (h *Handler) DownloadICS(c *gin.Context) {
	token, ok := strings.CutSuffix(c.Param("token"), ".ics")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "calendar not found"})
		return
	}

	record, err := h.store.FindToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "calendar not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to look up calendar token"})
		return
	}

	path := h.exporter.ArtifactPath(token)
	if !h.exporter.ArtifactExists(token) {
		path, err = h.exporter.Export(c.Request.Context(), token)
		if err != nil {
			h.abortWithRenderError(c, err)
			return
		}
	}

	if err := h.store.TouchToken(c.Request.Context(), token, time.Now()); err != nil {
		log.Printf("Failed to touch calendar token %s: %v", token, err)
	}

	c.Header("Content-Type", icsContentType)
	c.FileAttachment(path, record.StudentID+"-"+record.TermID+".ics")
}

// LegacyICS handles GET /ics/:name, the historical URL form where the path
// carries "<student_id>-<term>.ics" as a single segment. It splits the
// segment and streams a freshly built feed without going through the token
// store.
func (h *Handler) LegacyICS(c *gin.Context) {
	studentID, termID, ok := splitLegacyName(c.Param("name"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "calendar not found"})
		return
	}

	feed, err := h.renderer.Render(c.Request.Context(), studentID, termID)
	if err != nil {
		h.abortWithRenderError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+studentID+"-"+termID+`.ics"`)
	c.Data(http.StatusOK, icsContentType, feed)
}

func (h *Handler) abortWithRenderError(c *gin.Context, err error) {
	var unknown *timetable.UnknownTermError
	switch {
	case errors.As(err, &unknown):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "term not available"})
	case errors.Is(err, upstream.ErrStudentNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "student not found"})
	default:
		log.Printf("Feed render failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to generate calendar"})
	}
}

// splitLegacyName splits a combined "<student_id>-<term>.ics" path segment
// at the first dash. Student identifiers never contain dashes, so the
// remainder is the term identifier ("YYYY-YYYY-N").
func splitLegacyName(name string) (studentID, termID string, ok bool) {
	name, ok = strings.CutSuffix(name, ".ics")
	if !ok {
		return "", "", false
	}
	idx := strings.Index(name, "-")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}
