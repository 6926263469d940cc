package model

import "time"

// CalendarToken maps an opaque subscription token to the (student, term)
// pair it exports. The token doubles as the durable storage key of the
// generated feed ({token}.ics).
type CalendarToken struct {
	Token      string    `gorm:"primaryKey;size:36"`
	StudentID  string    `gorm:"size:15;not null;index:idx_calendar_tokens_owner"`
	TermID     string    `gorm:"size:16;not null;index:idx_calendar_tokens_owner"`
	CreatedAt  time.Time `gorm:"not null"`
	LastUsedAt *time.Time
}
