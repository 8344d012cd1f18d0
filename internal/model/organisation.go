package model

import "time"

// Organisation is the profile an Organisation account completes after
// sign-up. It is reviewed by an admin; only the review decision and the
// reviewer are changed by admins, everything else belongs to the owner.
//
// Fields:
//
//	ID             – primary key identifier.
//	UserID         – owning account (one profile per account).
//	Name           – owning account's display name, joined for listings.
//	Type           – GO/MDAs, NGO/iNGO, Women/YouthLead or Private.
//	ContactNumber  – phone number as entered.
//	AddressLine    – postal address.
//	State          – Nigerian state.
//	FocusArea      – optional climate focus area.
//	Description    – free text, up to 2500 characters.
//	Twitter … Website – optional profile links.
//	LogoURL        – optional logo location.
//	CertificateURL – optional CAC certificate or request letter.
//	Status         – Pending, Decline or Approved.
//	ApprovedBy     – reviewer user id, nil until reviewed.
//	CreatedAt      – timestamp of creation.
type Organisation struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	Name           string    `json:"name"`
	Type           string    `json:"organisation_type"`
	ContactNumber  string    `json:"contact_number"`
	AddressLine    string    `json:"address_line"`
	State          string    `json:"state"`
	FocusArea      *string   `json:"focus_area,omitempty"`
	Description    string    `json:"description"`
	Twitter        *string   `json:"twitter,omitempty"`
	Facebook       *string   `json:"facebook,omitempty"`
	Instagram      *string   `json:"instagram,omitempty"`
	Website        *string   `json:"website,omitempty"`
	LogoURL        *string   `json:"logo_url,omitempty"`
	CertificateURL *string   `json:"certificate_url,omitempty"`
	Status         string    `json:"status"`
	ApprovedBy     *uint64   `json:"approved_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganisationTypeCounts is the per-type breakdown shown on the admin
// organisation list.
type OrganisationTypeCounts struct {
	MDA     int `json:"mda"`
	NGO     int `json:"ngo"`
	Youth   int `json:"youth"`
	Private int `json:"private"`
}

// Activist is the profile of an individual Activist account. An activist
// may name the organisation they work with.
type Activist struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	Name           string    `json:"name"`
	OrganisationID *uint64   `json:"organisation_id,omitempty"`
	Designation    string    `json:"designation"`
	ContactNumber  string    `json:"contact_number"`
	Email          string    `json:"email"`
	AddressLine    string    `json:"address_line"`
	State          string    `json:"state"`
	FocusArea      string    `json:"focus_area"`
	Description    string    `json:"description"`
	Twitter        *string   `json:"twitter,omitempty"`
	Facebook       *string   `json:"facebook,omitempty"`
	Instagram      *string   `json:"instagram,omitempty"`
	Website        *string   `json:"website,omitempty"`
	Status         *string   `json:"status,omitempty"`
	ApprovedBy     *uint64   `json:"approved_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
