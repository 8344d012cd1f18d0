package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/schedule"
	"github.com/iliyamo/cop-side-events/internal/testutil"
)

func at(h, m int) time.Time {
	return time.Date(2024, 11, 12, h, m, 0, 0, time.UTC)
}

func seedOrganisation(t *testing.T, ctx context.Context, users *UserRepo, orgs *OrganisationRepo) uint64 {
	t.Helper()
	uid, err := users.Create(ctx, "host@example.org", "Green Host", "secret123", model.RoleOrganisation, 4)
	require.NoError(t, err)
	o := &model.Organisation{
		UserID:        uid,
		Type:          "NGO/iNGO",
		ContactNumber: "+2348000000000",
		AddressLine:   "1 Marina",
		State:         "Lagos",
		Description:   "climate",
	}
	require.NoError(t, orgs.Create(ctx, o))
	return o.ID
}

func TestApplicationRepo_FindOverlapping(t *testing.T) {
	db := testutil.MySQL(t)
	ctx := context.Background()
	apps := NewApplicationRepo(db)
	orgID := seedOrganisation(t, ctx, NewUserRepo(db), NewOrganisationRepo(db))

	declined := &model.EventApplication{OrganisationID: orgID, ProposedTitle: "A", NumberOfSpeakers: 2,
		StartTime: at(10, 0), EndTime: at(12, 0), Status: model.ApplicationDeclined}
	require.NoError(t, apps.Create(ctx, declined))

	t.Run("declined rows still block", func(t *testing.T) {
		got, err := apps.FindOverlapping(ctx, schedule.Interval{Start: at(11, 0), End: at(13, 0)}, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Start.Equal(at(10, 0)))
	})
	t.Run("touching endpoints are free", func(t *testing.T) {
		got, err := apps.FindOverlapping(ctx, schedule.Interval{Start: at(12, 0), End: at(13, 0)}, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
	t.Run("own row is excluded", func(t *testing.T) {
		got, err := apps.FindOverlapping(ctx, schedule.Interval{Start: at(9, 0), End: at(11, 0)}, declined.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestApplicationRepo_ConcurrentCreatesSerialize(t *testing.T) {
	db := testutil.MySQL(t)
	ctx := context.Background()
	apps := NewApplicationRepo(db)
	orgID := seedOrganisation(t, ctx, NewUserRepo(db), NewOrganisationRepo(db))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := &model.EventApplication{OrganisationID: orgID, ProposedTitle: "race", NumberOfSpeakers: 1,
				StartTime: at(10, i), EndTime: at(11, i)}
			err := apps.WithScheduleLock(ctx, func(ctx context.Context) error {
				existing, err := apps.FindOverlapping(ctx, a.Interval(), 0)
				if err != nil {
					return err
				}
				if err := schedule.Validate(a.Interval(), existing, nil); err != nil {
					return err
				}
				return apps.Create(ctx, a)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, schedule.ErrScheduleConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
}

func TestInvoiceRepo_MarkOverdue(t *testing.T) {
	db := testutil.MySQL(t)
	ctx := context.Background()
	apps := NewApplicationRepo(db)
	invoices := NewInvoiceRepo(db)
	orgID := seedOrganisation(t, ctx, NewUserRepo(db), NewOrganisationRepo(db))

	past := &model.EventApplication{OrganisationID: orgID, ProposedTitle: "past", NumberOfSpeakers: 1,
		StartTime: at(8, 0), EndTime: at(9, 0)}
	future := &model.EventApplication{OrganisationID: orgID, ProposedTitle: "future", NumberOfSpeakers: 1,
		StartTime: at(15, 0), EndTime: at(16, 0)}
	require.NoError(t, apps.Create(ctx, past))
	require.NoError(t, apps.Create(ctx, future))

	pastInv := &model.Invoice{ApplicationID: past.ID, Currency: "NGN", AmountDueCents: 50000}
	futureInv := &model.Invoice{ApplicationID: future.ID, Currency: "USD", AmountDueCents: 10000}
	require.NoError(t, invoices.Create(ctx, pastInv))
	require.NoError(t, invoices.Create(ctx, futureInv))

	n, err := invoices.MarkOverdue(ctx, at(12, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := invoices.GetByID(ctx, pastInv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentOverdue, got.PaymentStatus)

	got, err = invoices.GetByID(ctx, futureInv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentUnpaid, got.PaymentStatus)
}

func TestTokenRepo_ConsumeActionOnce(t *testing.T) {
	db := testutil.MySQL(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)

	uid, err := users.Create(ctx, "a@example.org", "A", "secret123", model.RoleActivist, 4)
	require.NoError(t, err)
	now := at(12, 0)
	require.NoError(t, tokens.StoreAction(ctx, uid, model.PurposeActivation, "hash-1", now.Add(time.Hour)))

	got, err := tokens.ConsumeAction(ctx, model.PurposeActivation, "hash-1", now)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	_, err = tokens.ConsumeAction(ctx, model.PurposeActivation, "hash-1", now)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
