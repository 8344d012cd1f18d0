package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/mail"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/queue"
	"github.com/iliyamo/cop-side-events/internal/repository"
)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []queue.MailJob
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, job queue.MailJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

var fixedNow = time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)

func TestNotifierPublishes(t *testing.T) {
	pub := &fakePublisher{}
	sender := mail.NewNoopSender()
	n := NewNotifier(mail.NewRenderer("https://cop.example.org"), pub, sender, clock.NewFixed(fixedNow))

	require.NoError(t, n.SendActivation(context.Background(), "a@example.org", "Ada", "tok", time.Hour))

	require.Len(t, pub.jobs, 1)
	assert.Equal(t, queue.KindActivation, pub.jobs[0].Kind)
	assert.Equal(t, []string{"a@example.org"}, pub.jobs[0].To)
	assert.Equal(t, fixedNow, pub.jobs[0].CreatedAt)
	assert.NoError(t, pub.jobs[0].Validate())
	assert.Empty(t, sender.Sent())
}

func TestNotifierFallsBackInline(t *testing.T) {
	sender := mail.NewNoopSender()
	n := NewNotifier(mail.NewRenderer(""), &fakePublisher{err: errors.New("broker down")}, sender, clock.NewFixed(fixedNow))

	require.NoError(t, n.SendPasswordReset(context.Background(), "a@example.org", "Ada", "tok", time.Hour))

	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "Password reset", sender.Sent()[0].Subject)
}

func TestNotifierBroadcastOnePerRecipient(t *testing.T) {
	sender := mail.NewNoopSender()
	n := NewNotifier(mail.NewRenderer(""), nil, sender, clock.NewFixed(fixedNow))

	count, err := n.BroadcastAnnouncement(context.Background(),
		[]string{"a@example.org", "b@example.org", "c@example.org"}, "Update", "*Hall C*")
	require.NoError(t, err)

	assert.Equal(t, 3, count)
	for _, m := range sender.Sent() {
		assert.Len(t, m.To, 1)
		assert.Contains(t, m.HTML, "<em>Hall C</em>")
	}
}

type fakeUsers struct {
	byEmail map[string]model.User
	created []string
}

func (u *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	if v, ok := u.byEmail[email]; ok {
		return v, nil
	}
	return model.User{}, repository.ErrUserNotFound
}

func (u *fakeUsers) Create(_ context.Context, email, name, password, role string, cost int) (uint64, error) {
	u.created = append(u.created, email+"|"+role+"|"+password)
	return 100 + uint64(len(u.created)), nil
}

type fakeParticipants struct {
	saved []model.Participant
	err   error
}

func (p *fakeParticipants) Create(_ context.Context, x *model.Participant) error {
	if p.err != nil {
		return p.err
	}
	x.ID = uint64(len(p.saved) + 1)
	p.saved = append(p.saved, *x)
	return nil
}

type fakeTokens struct{ stored []string }

func (f *fakeTokens) StoreAction(_ context.Context, userID uint64, purpose, hash string, exp time.Time) error {
	f.stored = append(f.stored, purpose)
	return nil
}

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func newAccreditation(users *fakeUsers, parts *fakeParticipants, tokens *fakeTokens, sender *mail.NoopSender) *AccreditationService {
	c := clock.NewFixed(fixedNow)
	notifier := NewNotifier(mail.NewRenderer(""), nil, sender, c)
	activator := NewActivator(tokens, notifier, c, 72*time.Hour)
	return NewAccreditationService(inlineTx{}, users, parts, activator, AccreditationConfig{
		DefaultPassword: "delegate-pass", AccreditedBy: "NCCC", BcryptCost: 4,
	})
}

func TestAccredit(t *testing.T) {
	ctx := context.Background()

	t.Run("new delegate gets an activist account and activation mail", func(t *testing.T) {
		users := &fakeUsers{byEmail: map[string]model.User{}}
		parts, tokens, sender := &fakeParticipants{}, &fakeTokens{}, mail.NewNoopSender()
		p := &model.Participant{Name: "Ngozi", Email: " Ngozi@Example.org ", AccreditationType: "Party", AccreditationNumber: "A-1"}

		require.NoError(t, newAccreditation(users, parts, tokens, sender).Accredit(ctx, p))

		assert.Equal(t, []string{"ngozi@example.org|Activist|delegate-pass"}, users.created)
		assert.Equal(t, "NCCC", parts.saved[0].AccreditedBy)
		assert.Equal(t, []string{model.PurposeActivation}, tokens.stored)
		assert.Len(t, sender.Sent(), 1)
	})

	t.Run("existing account is reused without mail", func(t *testing.T) {
		users := &fakeUsers{byEmail: map[string]model.User{"a@example.org": {ID: 7, Email: "a@example.org"}}}
		parts, tokens, sender := &fakeParticipants{}, &fakeTokens{}, mail.NewNoopSender()
		p := &model.Participant{Name: "A", Email: "a@example.org", AccreditedBy: "UNFCCC"}

		require.NoError(t, newAccreditation(users, parts, tokens, sender).Accredit(ctx, p))

		assert.EqualValues(t, 7, parts.saved[0].UserID)
		assert.Equal(t, "UNFCCC", parts.saved[0].AccreditedBy)
		assert.Empty(t, users.created)
		assert.Empty(t, sender.Sent())
	})

	t.Run("duplicate accreditation sends nothing", func(t *testing.T) {
		users := &fakeUsers{byEmail: map[string]model.User{}}
		parts := &fakeParticipants{err: repository.ErrDuplicateAccreditation}
		tokens, sender := &fakeTokens{}, mail.NewNoopSender()

		err := newAccreditation(users, parts, tokens, sender).Accredit(ctx, &model.Participant{Email: "x@example.org"})

		assert.ErrorIs(t, err, repository.ErrDuplicateAccreditation)
		assert.Empty(t, sender.Sent())
		assert.Empty(t, tokens.stored)
	})
}
