package model

import (
	"time"

	"github.com/iliyamo/cop-side-events/internal/schedule"
)

// EventApplication is an organisation's request to host a time-boxed
// side event (`event_applications`). No two applications may share an
// instant of their [StartTime, EndTime) windows, whatever their status.
//
// Fields:
//
//	ID               – primary key identifier, immutable.
//	OrganisationID   – hosting organisation.
//	OrganisationName – host's display name, joined for listings.
//	ProposedTitle    – working title.
//	EventType        – Panels, Presentations or Panel/Presentations (optional).
//	NumberOfSpeakers – speakers on the programme.
//	StartTime        – start of the slot.
//	EndTime          – end of the slot, strictly after StartTime.
//	Status           – Pending, Approved or Declined.
//	Description      – optional long description.
//	FlierURL         – optional flier location.
//	CreatedAt        – timestamp of creation.
type EventApplication struct {
	ID               uint64    `json:"id"`
	OrganisationID   uint64    `json:"organisation_id"`
	OrganisationName string    `json:"organisation_name,omitempty"`
	ProposedTitle    string    `json:"proposed_title"`
	EventType        *string   `json:"event_type,omitempty"`
	NumberOfSpeakers int       `json:"number_of_speakers"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Status           string    `json:"status"`
	Description      *string   `json:"description,omitempty"`
	FlierURL         *string   `json:"flier_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Interval returns the application's booked window.
func (a *EventApplication) Interval() schedule.Interval {
	return schedule.Interval{Start: a.StartTime, End: a.EndTime}
}

// Duration is the length of the booked window.
func (a *EventApplication) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// ApplicationSummary holds the counters shown above side-event lists.
type ApplicationSummary struct {
	Applications int `json:"applications"`
	Approved     int `json:"approved"`
	Hosted       int `json:"hosted"`
}
