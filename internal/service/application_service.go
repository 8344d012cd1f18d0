// Package service holds the workflows that span more than one repository
// call.
package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/schedule"
)

// ApplicationStore is the persistence ApplicationService needs.
// WithScheduleLock must serialize every caller that writes an interval
// until fn's changes are committed.
type ApplicationStore interface {
	WithScheduleLock(ctx context.Context, fn func(ctx context.Context) error) error
	GetByID(ctx context.Context, id uint64) (*model.EventApplication, error)
	FindOverlapping(ctx context.Context, iv schedule.Interval, excludeID uint64) ([]schedule.Interval, error)
	Create(ctx context.Context, a *model.EventApplication) error
	Update(ctx context.Context, a *model.EventApplication) error
}

// ApplicationService creates and edits side-event applications without
// ever letting two of them share an instant.
type ApplicationService struct {
	store ApplicationStore
}

func NewApplicationService(store ApplicationStore) *ApplicationService {
	return &ApplicationService{store: store}
}

// Create books a's window and inserts it. A window that overlaps any
// stored application fails with a *schedule.ConflictError.
func (s *ApplicationService) Create(ctx context.Context, a *model.EventApplication) error {
	iv := a.Interval()
	if err := iv.Check(); err != nil {
		return err
	}
	return s.store.WithScheduleLock(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindOverlapping(ctx, iv, 0)
		if err != nil {
			return fmt.Errorf("load booked windows: %w", err)
		}
		if err := schedule.Validate(iv, existing, nil); err != nil {
			return err
		}
		if err := s.store.Create(ctx, a); err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	})
}

// Update loads application id, runs guard (nil allowed) to authorize the
// edit, applies patch and saves. The window is re-checked against every
// other application unless patch left it exactly as stored.
func (s *ApplicationService) Update(
	ctx context.Context,
	id uint64,
	guard func(cur *model.EventApplication) error,
	patch func(a *model.EventApplication) error,
) (*model.EventApplication, error) {
	var out *model.EventApplication
	err := s.store.WithScheduleLock(ctx, func(ctx context.Context) error {
		cur, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(cur); err != nil {
				return err
			}
		}
		self := cur.Interval()
		if err := patch(cur); err != nil {
			return err
		}
		cur.ID = id

		iv := cur.Interval()
		if err := iv.Check(); err != nil {
			return err
		}
		var existing []schedule.Interval
		if !self.Equal(iv) {
			if existing, err = s.store.FindOverlapping(ctx, iv, id); err != nil {
				return fmt.Errorf("load booked windows: %w", err)
			}
		}
		if err := schedule.Validate(iv, existing, &self); err != nil {
			return err
		}
		if err := s.store.Update(ctx, cur); err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		out = cur
		return nil
	})
	return out, err
}
