package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// AnnouncementRepo stores broadcast messages.
type AnnouncementRepo struct {
	db *sql.DB
}

func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo {
	return &AnnouncementRepo{db: db}
}

// Create inserts a and fills its ID and timestamp.
func (r *AnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO announcements (subject, message, sender) VALUES (?,?,?)", a.Subject, a.Message, a.Sender)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT created_at FROM announcements WHERE id=?", a.ID).Scan(&a.CreatedAt)
}

// List returns every announcement, newest first.
func (r *AnnouncementRepo) List(ctx context.Context) ([]model.Announcement, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT id, subject, message, sender, created_at FROM announcements ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Subject, &a.Message, &a.Sender, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
