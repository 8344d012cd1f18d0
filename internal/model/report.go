package model

import "time"

// PostEventReport records what happened at a side event. There is at
// most one report per application.
type PostEventReport struct {
	ID            uint64    `json:"id"`
	ApplicationID uint64    `json:"application_id"`
	EventTitle    string    `json:"event_title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	VideoURL      *string   `json:"video_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Announcement is a broadcast message emailed to every registered user.
// Message is markdown.
type Announcement struct {
	ID        uint64    `json:"id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats are the counters shown on the landing page and the
// admin and organisation dashboards. Speaker, host and hour totals only
// count events that have a report.
type DashboardStats struct {
	Delegates     int                `json:"delegates"`
	Organisations int                `json:"organisations"`
	SideEvents    int                `json:"side_events"`
	Sessions      int                `json:"sessions"`
	TotalSpeakers int                `json:"total_speakers"`
	Hosts         int                `json:"hosts"`
	TotalHours    int                `json:"total_hours"`
	LatestReports []PostEventReport  `json:"latest_reports"`
	EventsToday   []EventApplication `json:"events_today"`
}
