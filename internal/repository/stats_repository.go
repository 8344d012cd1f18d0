package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// latestReports is how many reports a dashboard shows.
const latestReports = 3

// StatsRepo computes the dashboard counters.
type StatsRepo struct {
	db      *sql.DB
	apps    *ApplicationRepo
	reports *ReportRepo
}

func NewStatsRepo(db *sql.DB, apps *ApplicationRepo, reports *ReportRepo) *StatsRepo {
	return &StatsRepo{db: db, apps: apps, reports: reports}
}

// Dashboard returns the counters for the landing page and dashboards.
// A non-nil orgID narrows the event counters to one host; delegate and
// organisation totals stay global. Events today are those starting in
// [dayStart, dayEnd).
func (r *StatsRepo) Dashboard(ctx context.Context, orgID *uint64, dayStart, dayEnd time.Time) (*model.DashboardStats, error) {
	var s model.DashboardStats
	q := conn(ctx, r.db)

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM participants").Scan(&s.Delegates); err != nil {
		return nil, err
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM organisations").Scan(&s.Organisations); err != nil {
		return nil, err
	}

	where, args := "", []any{}
	if orgID != nil {
		where, args = " AND a.organisation_id = ?", []any{*orgID}
	}

	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_applications a WHERE a.status = ?"+where,
		append([]any{model.ApplicationApproved}, args...)...).Scan(&s.SideEvents); err != nil {
		return nil, err
	}

	// Reported events only.
	var seconds int64
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(a.number_of_speakers), 0), COUNT(DISTINCT a.organisation_id),
                COALESCE(SUM(TIMESTAMPDIFF(SECOND, a.start_time, a.end_time)), 0)
           FROM event_applications a JOIN post_event_reports p ON p.application_id = a.id
          WHERE 1=1`+where, args...).Scan(&s.Sessions, &s.TotalSpeakers, &s.Hosts, &seconds); err != nil {
		return nil, err
	}
	s.TotalHours = int(time.Duration(seconds) * time.Second / time.Hour)

	var err error
	if s.LatestReports, err = r.reports.Latest(ctx, latestReports, orgID); err != nil {
		return nil, err
	}
	if s.EventsToday, err = r.apps.ListStartingBetween(ctx, dayStart, dayEnd); err != nil {
		return nil, err
	}
	if s.EventsToday == nil {
		s.EventsToday = []model.EventApplication{}
	}
	return &s, nil
}
