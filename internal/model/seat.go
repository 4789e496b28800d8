package model

import "time"

// SectionAll is the sentinel filter value meaning "no section filter".
const SectionAll = "all"

// Sections is the fixed set of seat sections in the library. The order here
// is the order presented to clients.
var Sections = []string{"Quiet Zone", "Study Area", "Group Study", "Research Zone"}

// ValidSection reports whether s names a known section. The SectionAll
// sentinel is not a section.
func ValidSection(s string) bool {
	for _, name := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// Seat describes a bookable seat in the library.
//
// Fields:
//
//	ID          – uuid primary key.
//	Name        – seat label shown to users (e.g. "A1").
//	Section     – one of Sections.
//	IsAvailable – whether the seat can currently be booked. Toggled by
//	              booking and cancellation, never computed from intervals.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Seat struct {
	ID          string    `json:"id"`           // seats.id
	Name        string    `json:"name"`         // seats.name
	Section     string    `json:"section"`      // seats.section
	IsAvailable bool      `json:"is_available"` // seats.is_available
	CreatedAt   time.Time `json:"created_at"`   // seats.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // seats.updated_at
}
