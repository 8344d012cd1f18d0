package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
	"github.com/iliyamo/cop-side-events/internal/utils"
)

// ActionTokenStore persists emailed single-use tokens.
type ActionTokenStore interface {
	StoreAction(ctx context.Context, userID uint64, purpose, tokenHash string, exp time.Time) error
}

// ActivationMailer delivers the activation link.
type ActivationMailer interface {
	SendActivation(ctx context.Context, to, name, token string, ttl time.Duration) error
}

// Activator issues activation tokens and mails them.
type Activator struct {
	tokens ActionTokenStore
	mailer ActivationMailer
	clock  clock.Clock
	ttl    time.Duration
}

func NewActivator(tokens ActionTokenStore, mailer ActivationMailer, c clock.Clock, ttl time.Duration) *Activator {
	return &Activator{tokens: tokens, mailer: mailer, clock: c, ttl: ttl}
}

// Issue stores a fresh activation token for the user and emails it.
func (a *Activator) Issue(ctx context.Context, userID uint64, email, name string) error {
	tok, err := utils.NewActionToken(a.clock.Now(), a.ttl)
	if err != nil {
		return err
	}
	if err := a.tokens.StoreAction(ctx, userID, model.PurposeActivation, tok.Hash, tok.Exp); err != nil {
		return fmt.Errorf("store activation token: %w", err)
	}
	return a.mailer.SendActivation(ctx, email, name, tok.Raw, a.ttl)
}

// AccreditationUsers is the account lookup and creation accreditation needs.
type AccreditationUsers interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, email, name, password, role string, cost int) (uint64, error)
}

// ParticipantStore persists delegates.
type ParticipantStore interface {
	Create(ctx context.Context, p *model.Participant) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccreditationConfig holds the defaults applied to new delegates.
type AccreditationConfig struct {
	DefaultPassword string
	AccreditedBy    string
	BcryptCost      int
}

// AccreditationService registers conference delegates.
type AccreditationService struct {
	tx           TxRunner
	users        AccreditationUsers
	participants ParticipantStore
	activator    *Activator
	cfg          AccreditationConfig
}

func NewAccreditationService(tx TxRunner, users AccreditationUsers, participants ParticipantStore, activator *Activator, cfg AccreditationConfig) *AccreditationService {
	return &AccreditationService{tx: tx, users: users, participants: participants, activator: activator, cfg: cfg}
}

// Accredit records p as a delegate. The account for p.Email is reused when
// it exists; otherwise an Activist account with the default password is
// created and sent an activation link once the delegate is saved.
func (s *AccreditationService) Accredit(ctx context.Context, p *model.Participant) error {
	if p.AccreditedBy == "" {
		p.AccreditedBy = s.cfg.AccreditedBy
	}
	p.Email = repository.NormalizeEmail(p.Email)

	created := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmail(ctx, p.Email)
		switch {
		case err == nil:
			p.UserID = u.ID
		case errors.Is(err, repository.ErrUserNotFound):
			id, err := s.users.Create(ctx, p.Email, p.Name, s.cfg.DefaultPassword, model.RoleActivist, s.cfg.BcryptCost)
			if err != nil {
				return fmt.Errorf("create delegate account: %w", err)
			}
			p.UserID, created = id, true
		default:
			return err
		}
		return s.participants.Create(ctx, p)
	})
	if err != nil {
		return err
	}
	if created {
		if err := s.activator.Issue(ctx, p.UserID, p.Email, p.Name); err != nil {
			// The delegate is saved; the user can ask for a reset instead.
			slog.Error("accreditation: activation mail failed", "user_id", p.UserID, "err", err)
		}
	}
	return nil
}
