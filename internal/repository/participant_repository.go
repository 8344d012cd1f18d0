package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// ParticipantRepo stores accredited delegates.
type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create inserts a delegate. A reused accreditation number, or a user that
// is already accredited, yields ErrDuplicateAccreditation.
func (r *ParticipantRepo) Create(ctx context.Context, p *model.Participant) error {
	if p.AccreditedBy == "" {
		p.AccreditedBy = model.DefaultAccreditor
	}
	const q = `INSERT INTO participants (user_id, accreditation_type, accreditation_number, name, email,
               organisation_id, not_listed, accredited_by, cop_year)
               VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		p.UserID, p.AccreditationType, p.AccreditationNumber, p.Name, NormalizeEmail(p.Email),
		nullUint(p.OrganisationID), nullString(p.NotListed), p.AccreditedBy, p.COPYear)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateAccreditation
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// List returns every delegate, most recent first.
func (r *ParticipantRepo) List(ctx context.Context) ([]model.Participant, error) {
	const q = `SELECT id, user_id, accreditation_type, accreditation_number, name, email,
                      organisation_id, not_listed, accredited_by, cop_year
               FROM participants ORDER BY id DESC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		var (
			p         model.Participant
			orgID     sql.NullInt64
			notListed sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.AccreditationType, &p.AccreditationNumber, &p.Name, &p.Email,
			&orgID, &notListed, &p.AccreditedBy, &p.COPYear); err != nil {
			return nil, err
		}
		p.OrganisationID, p.NotListed = uintPtr(orgID), strPtr(notListed)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByAccreditor returns how many delegates accreditor issued and how
// many came from anyone else.
func (r *ParticipantRepo) CountByAccreditor(ctx context.Context, accreditor string) (own, others int, err error) {
	err = conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(accredited_by = ?), 0), COALESCE(SUM(accredited_by <> ?), 0) FROM participants`,
		accreditor, accreditor).Scan(&own, &others)
	return own, others, err
}
