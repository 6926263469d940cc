package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/patrickmn/go-cache"

	"classtable-backend/config"
	"classtable-backend/internal/timetable"
)

// ErrStudentNotFound is returned when the academic-records API has no record
// for the requested student in the requested term.
var ErrStudentNotFound = errors.New("student not found upstream")

// Timetable is a student's full weekly schedule for one term as returned by
// the academic-records API, already normalized into typed patterns.
type Timetable struct {
	StudentName string
	Patterns    []timetable.Pattern
}

// Client fetches student timetables from the academic-records API. Responses
// are cached briefly so that a subscription refresh storm does not hammer
// the upstream.
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
	cache     *cache.Cache
}

// NewClient creates a client for the configured upstream.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// Timetable fetches the timetable for (studentID, termID), serving from the
// in-memory cache when a recent copy exists.
func (c *Client) Timetable(ctx context.Context, studentID, termID string) (*Timetable, error) {
	key := studentID + "|" + termID
	if cached, found := c.cache.Get(key); found {
		return cached.(*Timetable), nil
	}

	reqURL := fmt.Sprintf("%s/v1/student/%s/%s",
		c.baseURL, url.PathEscape(studentID), url.PathEscape(termID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrStudentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upstream response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("upstream returned non-zero application code: %d", apiResp.Code)
	}

	tt := &Timetable{
		StudentName: apiResp.Data.Name,
		Patterns:    make([]timetable.Pattern, 0, len(apiResp.Data.Courses)),
	}
	for _, course := range apiResp.Data.Courses {
		tt.Patterns = append(tt.Patterns, timetable.Pattern{
			CourseID:  course.CID,
			Name:      course.Name,
			Classroom: normalizeOptional(course.Classroom),
			Teacher:   normalizeOptional(course.Teacher),
			Weekday:   course.Day,
			Period:    course.Time,
			Weeks:     course.Week,
			WeekText:  course.WeekText,
		})
	}

	c.cache.SetDefault(key, tt)
	return tt, nil
}

// normalizeOptional collapses the upstream's three spellings of "absent"
// (null, empty string, legacy "None") into a nil pointer.
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" || *s == "None" {
		return nil
	}
	return s
}
