package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"classtable-backend/internal/timetable"
	"classtable-backend/internal/upstream"
)

// GetCalendarToken handles GET /api/calendar/:student_id/:term. It verifies
// the term and student, mints (or re-uses) the calendar token and queues a
// background pre-render so the subsequent download is a plain file read.
func (h *Handler) GetCalendarToken(c *gin.Context) {
	studentID := c.Param("student_id")
	termID := c.Param("term")

	if _, err := h.catalog.Term(termID); err != nil {
		var unknown *timetable.UnknownTermError
		if errors.As(err, &unknown) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "term not available"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve term"})
		return
	}

	// Confirms the student exists and warms the timetable cache for the
	// render that follows.
	if _, err := h.upstream.Timetable(c.Request.Context(), studentID, termID); err != nil {
		if errors.Is(err, upstream.ErrStudentNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		log.Printf("Upstream lookup for %s/%s failed: %v", studentID, termID, err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "academic-records service unavailable"})
		return
	}

	token, err := h.store.TokenFor(c.Request.Context(), studentID, termID)
	if err != nil {
		log.Printf("Failed to mint calendar token for %s/%s: %v", studentID, termID, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar token"})
		return
	}

	h.exporter.Dispatch(token)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"term":  termID,
	})
}
