package timetable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtable-backend/config"
)

func TestParseTermID(t *testing.T) {
	testCases := []struct {
		id      string
		wantErr bool
	}{
		{id: "2023-2024-1", wantErr: false},
		{id: "2023-2024-3", wantErr: false},
		{id: "2023-2025-1", wantErr: true}, // years not consecutive
		{id: "2023-2024-4", wantErr: true}, // no fourth term
		{id: "2023-2024", wantErr: true},
		{id: "23-24-1", wantErr: true},
		{id: "", wantErr: true},
		{id: "garbage", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			yearFrom, yearTo, index, err := ParseTermID(tc.id)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, yearFrom+1, yearTo)
			assert.GreaterOrEqual(t, index, 1)
			assert.LessOrEqual(t, index, 3)
		})
	}
}

func TestNewCatalog_RejectsBadConfig(t *testing.T) {
	testCases := []struct {
		name         string
		entry        config.TermConfig
		wantConflict bool
	}{
		{
			name:  "malformed term id",
			entry: config.TermConfig{ID: "2023/2024/1", Start: "2023-09-04"},
		},
		{
			name:  "bad start date",
			entry: config.TermConfig{ID: "2023-2024-1", Start: "not-a-date"},
		},
		{
			name: "two adjustments on one date",
			entry: config.TermConfig{
				ID: "2023-2024-1", Start: "2023-09-04",
				Adjustments: []config.AdjustmentConfig{
					{Date: "2023-10-07", To: "2023-09-29"},
					{Date: "2023-10-07", Cancelled: true},
				},
			},
			wantConflict: true,
		},
		{
			name: "move target itself adjusted",
			entry: config.TermConfig{
				ID: "2023-2024-1", Start: "2023-09-04",
				Adjustments: []config.AdjustmentConfig{
					{Date: "2023-10-07", To: "2023-10-14"},
					{Date: "2023-10-14", Cancelled: true},
				},
			},
			wantConflict: true,
		},
		{
			name: "cancellation with target date",
			entry: config.TermConfig{
				ID: "2023-2024-1", Start: "2023-09-04",
				Adjustments: []config.AdjustmentConfig{
					{Date: "2023-10-07", To: "2023-09-29", Cancelled: true},
				},
			},
			wantConflict: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog([]config.TermConfig{tc.entry})
			require.Error(t, err)
			var conflict *AdjustmentConflictError
			assert.Equal(t, tc.wantConflict, errors.As(err, &conflict))
		})
	}
}

func TestNewCatalog_RejectsDuplicateTerm(t *testing.T) {
	_, err := NewCatalog([]config.TermConfig{
		{ID: "2023-2024-1", Start: "2023-09-04"},
		{ID: "2023-2024-1", Start: "2023-09-04"},
	})
	assert.Error(t, err)
}

func TestCatalog_UnknownTerm(t *testing.T) {
	catalog, err := NewCatalog([]config.TermConfig{
		{ID: "2023-2024-1", Start: "2023-09-04"},
	})
	require.NoError(t, err)

	_, err = catalog.Term("2024-2025-1")
	var unknown *UnknownTermError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "2024-2025-1", unknown.ID)
}

func TestCatalog_TermFields(t *testing.T) {
	catalog, err := NewCatalog([]config.TermConfig{
		{ID: "2023-2024-2", Start: "2024-02-26"},
	})
	require.NoError(t, err)

	term, err := catalog.Term("2023-2024-2")
	require.NoError(t, err)
	assert.Equal(t, 2023, term.YearFrom)
	assert.Equal(t, 2024, term.YearTo)
	assert.Equal(t, 2, term.Index)
	assert.Equal(t, Date{Year: 2024, Month: 2, Day: 26}, term.Start)
}
