package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// ActivistRepo manages individual activist profiles.
type ActivistRepo struct {
	db *sql.DB
}

func NewActivistRepo(db *sql.DB) *ActivistRepo {
	return &ActivistRepo{db: db}
}

const activistSelect = `SELECT a.id, a.user_id, u.name, a.organisation_id, a.designation, a.contact_number,
       a.email, a.address_line, a.state, a.focus_area, a.description,
       a.twitter, a.facebook, a.instagram, a.website, a.status, a.approved_by, a.created_at
  FROM activists a JOIN users u ON u.id = a.user_id`

func scanActivist(sc interface{ Scan(...any) error }) (model.Activist, error) {
	var (
		a                       model.Activist
		orgID, approvedBy       sql.NullInt64
		tw, fb, ig, web, status sql.NullString
	)
	err := sc.Scan(&a.ID, &a.UserID, &a.Name, &orgID, &a.Designation, &a.ContactNumber,
		&a.Email, &a.AddressLine, &a.State, &a.FocusArea, &a.Description,
		&tw, &fb, &ig, &web, &status, &approvedBy, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.OrganisationID, a.ApprovedBy = uintPtr(orgID), uintPtr(approvedBy)
	a.Twitter, a.Facebook, a.Instagram, a.Website = strPtr(tw), strPtr(fb), strPtr(ig), strPtr(web)
	a.Status = strPtr(status)
	return a, nil
}

// Create inserts the profile for a.UserID with status Pending.
func (r *ActivistRepo) Create(ctx context.Context, a *model.Activist) error {
	const q = `INSERT INTO activists (user_id, organisation_id, designation, contact_number, email, address_line,
               state, focus_area, description, twitter, facebook, instagram, website, status)
               VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		a.UserID, nullUint(a.OrganisationID), a.Designation, a.ContactNumber, NormalizeEmail(a.Email), a.AddressLine,
		a.State, a.FocusArea, a.Description, nullString(a.Twitter), nullString(a.Facebook),
		nullString(a.Instagram), nullString(a.Website), model.ReviewPending)
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
	a.ID = uint64(id)
	pending := model.ReviewPending
	a.Status = &pending
	return nil
}

// UpdateByUser overwrites the owner-editable fields.
func (r *ActivistRepo) UpdateByUser(ctx context.Context, a *model.Activist) error {
	const q = `UPDATE activists SET organisation_id=?, designation=?, contact_number=?, email=?, address_line=?,
               state=?, focus_area=?, description=?, twitter=?, facebook=?, instagram=?, website=?
               WHERE user_id=?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		nullUint(a.OrganisationID), a.Designation, a.ContactNumber, NormalizeEmail(a.Email), a.AddressLine,
		a.State, a.FocusArea, a.Description, nullString(a.Twitter), nullString(a.Facebook),
		nullString(a.Instagram), nullString(a.Website), a.UserID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return requireRow(res, ErrActivistNotFound)
}

// GetByUser returns the profile owned by userID.
func (r *ActivistRepo) GetByUser(ctx context.Context, userID uint64) (*model.Activist, error) {
	a, err := scanActivist(conn(ctx, r.db).QueryRowContext(ctx, activistSelect+" WHERE a.user_id = ?", userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivistNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns every activist profile, newest first.
func (r *ActivistRepo) List(ctx context.Context) ([]model.Activist, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, activistSelect+" ORDER BY a.created_at DESC, a.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Activist
	for rows.Next() {
		a, err := scanActivist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetStatus records a review decision and the reviewing user.
func (r *ActivistRepo) SetStatus(ctx context.Context, id uint64, status string, reviewer uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE activists SET status=?, approved_by=? WHERE id=?", status, reviewer, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrActivistNotFound)
}
