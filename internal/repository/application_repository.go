package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/schedule"
)

// scheduleLockName is the schedule_locks row every interval write locks.
const scheduleLockName = "event_applications"

// ApplicationRepo stores side-event applications.
type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

const appSelect = `SELECT a.id, a.organisation_id, u.name, a.proposed_title, a.event_type, a.number_of_speakers,
       a.start_time, a.end_time, a.status, a.description, a.flier_url, a.created_at
  FROM event_applications a
  JOIN organisations o ON o.id = a.organisation_id
  JOIN users u ON u.id = o.user_id`

func scanApplication(sc interface{ Scan(...any) error }) (model.EventApplication, error) {
	var (
		a                      model.EventApplication
		eventType, desc, flier sql.NullString
	)
	err := sc.Scan(&a.ID, &a.OrganisationID, &a.OrganisationName, &a.ProposedTitle, &eventType, &a.NumberOfSpeakers,
		&a.StartTime, &a.EndTime, &a.Status, &desc, &flier, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.EventType, a.Description, a.FlierURL = strPtr(eventType), strPtr(desc), strPtr(flier)
	return a, nil
}

func (r *ApplicationRepo) list(ctx context.Context, q string, args ...any) ([]model.EventApplication, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.EventApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// WithScheduleLock runs fn in a transaction holding the calendar row lock.
// Concurrent callers queue on the lock, so a conflict check made inside
// fn stays true until fn's writes commit.
func (r *ApplicationRepo) WithScheduleLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		var name string
		err := conn(ctx, r.db).QueryRowContext(ctx,
			"SELECT name FROM schedule_locks WHERE name=? FOR UPDATE", scheduleLockName).Scan(&name)
		if err != nil {
			return err
		}
		return fn(ctx)
	})
}

// FindOverlapping returns the windows of every application, whatever its
// status, that shares an instant with iv. The row excludeID is skipped;
// pass 0 when inserting.
func (r *ApplicationRepo) FindOverlapping(ctx context.Context, iv schedule.Interval, excludeID uint64) ([]schedule.Interval, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT start_time, end_time FROM event_applications
         WHERE start_time < ? AND end_time > ? AND id <> ?
         ORDER BY start_time, id`,
		iv.End.UTC(), iv.Start.UTC(), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []schedule.Interval
	for rows.Next() {
		var s schedule.Interval
		if err := rows.Scan(&s.Start, &s.End); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns one application with its host's name.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*model.EventApplication, error) {
	a, err := scanApplication(conn(ctx, r.db).QueryRowContext(ctx, appSelect+" WHERE a.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a and sets its ID. Callers check the calendar first.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.EventApplication) error {
	if a.Status == "" {
		a.Status = model.ApplicationPending
	}
	const q = `INSERT INTO event_applications (organisation_id, proposed_title, event_type, number_of_speakers,
               start_time, end_time, status, description, flier_url)
               VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		a.OrganisationID, a.ProposedTitle, nullString(a.EventType), a.NumberOfSpeakers,
		a.StartTime.UTC(), a.EndTime.UTC(), a.Status, nullString(a.Description), nullString(a.FlierURL))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Update writes every mutable column of a.
func (r *ApplicationRepo) Update(ctx context.Context, a *model.EventApplication) error {
	const q = `UPDATE event_applications SET organisation_id=?, proposed_title=?, event_type=?,
               number_of_speakers=?, start_time=?, end_time=?, status=?, description=?, flier_url=?
               WHERE id=?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		a.OrganisationID, a.ProposedTitle, nullString(a.EventType), a.NumberOfSpeakers,
		a.StartTime.UTC(), a.EndTime.UTC(), a.Status, nullString(a.Description), nullString(a.FlierURL), a.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrApplicationNotFound)
}

// ListAll returns every application, newest first.
func (r *ApplicationRepo) ListAll(ctx context.Context) ([]model.EventApplication, error) {
	return r.list(ctx, appSelect+" ORDER BY a.created_at DESC, a.id DESC")
}

// ListByOrg returns the applications of one organisation, newest first.
func (r *ApplicationRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.EventApplication, error) {
	return r.list(ctx, appSelect+" WHERE a.organisation_id = ? ORDER BY a.created_at DESC, a.id DESC", orgID)
}

// ListUpcoming returns applications starting on or after from, earliest
// first, plus the total number of such rows.
func (r *ApplicationRepo) ListUpcoming(ctx context.Context, from time.Time, limit, offset int) ([]model.EventApplication, int, error) {
	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_applications WHERE start_time >= ?", from.UTC()).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, appSelect+" WHERE a.start_time >= ? ORDER BY a.start_time, a.id LIMIT ? OFFSET ?",
		from.UTC(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListStartingBetween returns applications whose start lies in [from, to).
func (r *ApplicationRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]model.EventApplication, error) {
	return r.list(ctx, appSelect+" WHERE a.start_time >= ? AND a.start_time < ? ORDER BY a.start_time, a.id",
		from.UTC(), to.UTC())
}

// Summary counts applications, approved applications and reported
// (hosted) applications. A non-nil orgID narrows it to one host.
func (r *ApplicationRepo) Summary(ctx context.Context, orgID *uint64) (model.ApplicationSummary, error) {
	var s model.ApplicationSummary
	q := `SELECT COUNT(*), COALESCE(SUM(a.status = ?), 0), COUNT(p.id)
          FROM event_applications a
          LEFT JOIN post_event_reports p ON p.application_id = a.id`
	args := []any{model.ApplicationApproved}
	if orgID != nil {
		q += " WHERE a.organisation_id = ?"
		args = append(args, *orgID)
	}
	err := conn(ctx, r.db).QueryRowContext(ctx, q, args...).Scan(&s.Applications, &s.Approved, &s.Hosted)
	return s, err
}
