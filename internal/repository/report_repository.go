package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// ReportRepo stores post-event reports, at most one per application.
type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

const reportSelect = `SELECT p.id, p.application_id, a.proposed_title, p.description, p.image_url, p.video_url, p.created_at
  FROM post_event_reports p JOIN event_applications a ON a.id = p.application_id`

func scanReport(sc interface{ Scan(...any) error }) (model.PostEventReport, error) {
	var (
		p                  model.PostEventReport
		desc, image, video sql.NullString
	)
	if err := sc.Scan(&p.ID, &p.ApplicationID, &p.EventTitle, &desc, &image, &video, &p.CreatedAt); err != nil {
		return p, err
	}
	p.Description, p.ImageURL, p.VideoURL = strPtr(desc), strPtr(image), strPtr(video)
	return p, nil
}

// Upsert creates or replaces the report of p.ApplicationID.
func (r *ReportRepo) Upsert(ctx context.Context, p *model.PostEventReport) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO post_event_reports (application_id, description, image_url, video_url) VALUES (?,?,?,?)
         ON DUPLICATE KEY UPDATE description=VALUES(description), image_url=VALUES(image_url), video_url=VALUES(video_url)`,
		p.ApplicationID, nullString(p.Description), nullString(p.ImageURL), nullString(p.VideoURL))
	if err != nil {
		return err
	}
	saved, err := r.GetByApplication(ctx, p.ApplicationID)
	if err != nil {
		return err
	}
	*p = *saved
	return nil
}

// GetByID returns a report by primary key.
func (r *ReportRepo) GetByID(ctx context.Context, id uint64) (*model.PostEventReport, error) {
	return r.getOne(ctx, reportSelect+" WHERE p.id = ?", id)
}

// GetByApplication returns the report of an application.
func (r *ReportRepo) GetByApplication(ctx context.Context, appID uint64) (*model.PostEventReport, error) {
	return r.getOne(ctx, reportSelect+" WHERE p.application_id = ?", appID)
}

func (r *ReportRepo) getOne(ctx context.Context, q string, arg any) (*model.PostEventReport, error) {
	p, err := scanReport(conn(ctx, r.db).QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns every report, newest first.
func (r *ReportRepo) List(ctx context.Context) ([]model.PostEventReport, error) {
	return r.list(ctx, reportSelect+" ORDER BY p.created_at DESC, p.id DESC")
}

// Latest returns the n most recent reports. A non-nil orgID narrows it to
// one host's events.
func (r *ReportRepo) Latest(ctx context.Context, n int, orgID *uint64) ([]model.PostEventReport, error) {
	if orgID != nil {
		return r.list(ctx, reportSelect+" WHERE a.organisation_id = ? ORDER BY p.id DESC LIMIT ?", *orgID, n)
	}
	return r.list(ctx, reportSelect+" ORDER BY p.id DESC LIMIT ?", n)
}

func (r *ReportRepo) list(ctx context.Context, q string, args ...any) ([]model.PostEventReport, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PostEventReport{}
	for rows.Next() {
		p, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
