package model

import "time"

// Participant is an accredited conference delegate (`participants`).
// Each delegate is tied to a user account, created on the fly when the
// email is unknown.
//
// Fields:
//
//	ID                  – primary key identifier.
//	UserID              – linked account.
//	AccreditationType   – Party, Party Overflow, Observer, Media/Journalist or Volunteer.
//	AccreditationNumber – unique badge number.
//	Name, Email         – delegate identity as entered at accreditation.
//	OrganisationID      – listed organisation, if any.
//	NotListed           – free-text organisation when not listed.
//	AccreditedBy        – accrediting body, NCCC unless stated.
//	COPYear             – date of accreditation.
type Participant struct {
	ID                  uint64    `json:"id"`
	UserID              uint64    `json:"user_id"`
	AccreditationType   string    `json:"accreditation_type"`
	AccreditationNumber string    `json:"accreditation_number"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	OrganisationID      *uint64   `json:"organisation_id,omitempty"`
	NotListed           *string   `json:"not_listed,omitempty"`
	AccreditedBy        string    `json:"accredited_by"`
	COPYear             time.Time `json:"cop_year"`
}
