package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// OrganisationRepo manages organisation profiles.
type OrganisationRepo struct {
	db *sql.DB
}

func NewOrganisationRepo(db *sql.DB) *OrganisationRepo {
	return &OrganisationRepo{db: db}
}

const orgSelect = `SELECT o.id, o.user_id, u.name, o.organisation_type, o.contact_number, o.address_line,
       o.state, o.focus_area, o.description, o.twitter, o.facebook, o.instagram, o.website,
       o.logo_url, o.certificate_url, o.status, o.approved_by, o.created_at
  FROM organisations o JOIN users u ON u.id = o.user_id`

func scanOrganisation(sc interface{ Scan(...any) error }) (model.Organisation, error) {
	var (
		o                                  model.Organisation
		focus, tw, fb, ig, web, logo, cert sql.NullString
		approvedBy                         sql.NullInt64
	)
	err := sc.Scan(&o.ID, &o.UserID, &o.Name, &o.Type, &o.ContactNumber, &o.AddressLine,
		&o.State, &focus, &o.Description, &tw, &fb, &ig, &web,
		&logo, &cert, &o.Status, &approvedBy, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	o.FocusArea = strPtr(focus)
	o.Twitter, o.Facebook, o.Instagram, o.Website = strPtr(tw), strPtr(fb), strPtr(ig), strPtr(web)
	o.LogoURL, o.CertificateURL = strPtr(logo), strPtr(cert)
	o.ApprovedBy = uintPtr(approvedBy)
	return o, nil
}

// Create inserts the profile for o.UserID. Status always starts Pending.
func (r *OrganisationRepo) Create(ctx context.Context, o *model.Organisation) error {
	const q = `INSERT INTO organisations (user_id, organisation_type, contact_number, address_line, state,
               focus_area, description, twitter, facebook, instagram, website, logo_url, certificate_url, status)
               VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		o.UserID, o.Type, o.ContactNumber, o.AddressLine, o.State,
		nullString(o.FocusArea), o.Description, nullString(o.Twitter), nullString(o.Facebook),
		nullString(o.Instagram), nullString(o.Website), nullString(o.LogoURL), nullString(o.CertificateURL),
		model.ReviewPending)
	if err != nil {
		if isDuplicate(err) {
			return ErrProfileExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.ReviewPending
	return nil
}

// UpdateByUser overwrites the owner-editable fields. Review status and
// reviewer are left untouched.
func (r *OrganisationRepo) UpdateByUser(ctx context.Context, o *model.Organisation) error {
	const q = `UPDATE organisations SET organisation_type=?, contact_number=?, address_line=?, state=?,
               focus_area=?, description=?, twitter=?, facebook=?, instagram=?, website=?,
               logo_url=?, certificate_url=?
               WHERE user_id=?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		o.Type, o.ContactNumber, o.AddressLine, o.State,
		nullString(o.FocusArea), o.Description, nullString(o.Twitter), nullString(o.Facebook),
		nullString(o.Instagram), nullString(o.Website), nullString(o.LogoURL), nullString(o.CertificateURL),
		o.UserID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrOrganisationNotFound)
}

// GetByUser returns the profile owned by userID.
func (r *OrganisationRepo) GetByUser(ctx context.Context, userID uint64) (*model.Organisation, error) {
	return r.getOne(ctx, orgSelect+" WHERE o.user_id = ?", userID)
}

// GetByID returns a profile by primary key.
func (r *OrganisationRepo) GetByID(ctx context.Context, id uint64) (*model.Organisation, error) {
	return r.getOne(ctx, orgSelect+" WHERE o.id = ?", id)
}

func (r *OrganisationRepo) getOne(ctx context.Context, q string, arg any) (*model.Organisation, error) {
	o, err := scanOrganisation(conn(ctx, r.db).QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganisationNotFound
		}
		return nil, err
	}
	return &o, nil
}

// List returns every organisation, newest first.
func (r *OrganisationRepo) List(ctx context.Context) ([]model.Organisation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, orgSelect+" ORDER BY o.created_at DESC, o.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Organisation
	for rows.Next() {
		o, err := scanOrganisation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountByType returns the per-type breakdown.
func (r *OrganisationRepo) CountByType(ctx context.Context) (model.OrganisationTypeCounts, error) {
	var c model.OrganisationTypeCounts
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT organisation_type, COUNT(*) FROM organisations GROUP BY organisation_type")
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return c, err
		}
		switch typ {
		case "GO/MDAs":
			c.MDA = n
		case "NGO/iNGO":
			c.NGO = n
		case "Women/YouthLead":
			c.Youth = n
		case "Private":
			c.Private = n
		}
	}
	return c, rows.Err()
}

// SetStatus records a review decision and the reviewing user.
func (r *OrganisationRepo) SetStatus(ctx context.Context, id uint64, status string, reviewer uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE organisations SET status=?, approved_by=? WHERE id=?", status, reviewer, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrOrganisationNotFound)
}
