package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cop-side-events/internal/model"
)

// StaffRepo manages admin accounts and their staff profiles.
type StaffRepo struct {
	db    *sql.DB
	users *UserRepo
}

func NewStaffRepo(db *sql.DB, users *UserRepo) *StaffRepo {
	return &StaffRepo{db: db, users: users}
}

// Create inserts an already verified admin user and its profile in one
// transaction.
func (r *StaffRepo) Create(ctx context.Context, email, name, password, role string, cost int, p model.StaffProfile) (uint64, error) {
	var id uint64
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		id, err = r.users.Create(ctx, email, name, password, role, cost)
		if err != nil {
			return err
		}
		if err := r.users.SetVerified(ctx, id); err != nil {
			return err
		}
		_, err = conn(ctx, r.db).ExecContext(ctx,
			"INSERT INTO staff_profiles (user_id, designation, duty) VALUES (?,?,?)",
			id, p.Designation, p.Duty)
		return err
	})
	return id, err
}

// List returns every staff profile with its account identity.
func (r *StaffRepo) List(ctx context.Context) ([]model.StaffProfile, error) {
	const q = `SELECT s.user_id, u.name, u.email, s.designation, s.duty, s.created_at
               FROM staff_profiles s JOIN users u ON u.id = s.user_id
               ORDER BY s.created_at DESC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StaffProfile
	for rows.Next() {
		var p model.StaffProfile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.Designation, &p.Duty, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
