package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
	"github.com/iliyamo/cop-side-events/internal/schedule"
	"github.com/iliyamo/cop-side-events/internal/utils"
)

const testSecret = "handler-test-secret-0123"

var testNow = time.Date(2024, 11, 11, 8, 0, 0, 0, time.UTC)

// ---- users ----

type memUsers struct {
	mu   sync.Mutex
	rows map[uint64]*model.User
	next uint64
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint64]*model.User{}} }

func (m *memUsers) Create(_ context.Context, email, name, password, role string, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.rows {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return 0, err
	}
	m.next++
	m.rows[m.next] = &model.User{ID: m.next, Email: email, Name: name, PasswordHash: hash, Role: role, IsActive: true}
	return m.next, nil
}

// add inserts a verified user directly.
func (m *memUsers) add(t *testing.T, email, password, role string) uint64 {
	t.Helper()
	id, err := m.Create(context.Background(), email, "Test User", password, role, 4)
	require.NoError(t, err)
	m.rows[id].IsVerified = true
	return id
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.rows {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return *u, nil
}

func (m *memUsers) SetVerified(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (m *memUsers) SetPassword(_ context.Context, id uint64, password string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) ListEmails(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, u := range m.rows {
		out = append(out, u.Email)
	}
	sort.Strings(out)
	return out, nil
}

// ---- tokens ----

type actionRow struct {
	userID  uint64
	purpose string
	exp     time.Time
	used    bool
}

type memTokens struct {
	mu         sync.Mutex
	refresh    map[string]uint64
	revoked    map[string]bool
	actions    map[string]*actionRow
	revokedAll []uint64
}

func newMemTokens() *memTokens {
	return &memTokens{refresh: map[string]uint64{}, revoked: map[string]bool{}, actions: map[string]*actionRow{}}
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[hash] = userID
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.refresh[hash]
	if !ok || m.revoked[hash] {
		return 0, repository.ErrTokenNotFound
	}
	return uid, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[hash] = true
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, uid := range m.refresh {
		if uid == userID {
			m.revoked[h] = true
		}
	}
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *memTokens) StoreAction(_ context.Context, userID uint64, purpose, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[hash] = &actionRow{userID: userID, purpose: purpose, exp: exp}
	return nil
}

func (m *memTokens) ConsumeAction(_ context.Context, purpose, hash string, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[hash]
	if !ok || a.purpose != purpose || a.used || now.After(a.exp) {
		return 0, repository.ErrTokenNotFound
	}
	a.used = true
	return a.userID, nil
}

// ---- sessions, tx, mail ----

type fakeSessions struct {
	mu      sync.Mutex
	touched []uint64
	ended   []uint64
}

func (s *fakeSessions) Touch(_ context.Context, uid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, uid)
	return nil
}

func (s *fakeSessions) End(_ context.Context, uid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, uid)
	return nil
}

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// tokenIssuer stores activation tokens in memTokens and remembers the
// raw values that would have been emailed.
type tokenIssuer struct {
	tokens *memTokens
	raw    map[string]string
}

func (i *tokenIssuer) Issue(ctx context.Context, userID uint64, email, _ string) error {
	tok, err := utils.NewActionToken(testNow, time.Hour)
	if err != nil {
		return err
	}
	if i.raw == nil {
		i.raw = map[string]string{}
	}
	i.raw[email] = tok.Raw
	return i.tokens.StoreAction(ctx, userID, model.PurposeActivation, tok.Hash, tok.Exp)
}

type capturingMailer struct {
	resets    map[string]string
	broadcast []string
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, to, _, token string, _ time.Duration) error {
	if m.resets == nil {
		m.resets = map[string]string{}
	}
	m.resets[to] = token
	return nil
}

func (m *capturingMailer) BroadcastAnnouncement(_ context.Context, recipients []string, _, _ string) (int, error) {
	m.broadcast = append(m.broadcast, recipients...)
	return len(recipients), nil
}

// ---- organisations ----

type memOrgs struct {
	mu   sync.Mutex
	rows map[uint64]*model.Organisation
	next uint64
}

func newMemOrgs() *memOrgs { return &memOrgs{rows: map[uint64]*model.Organisation{}} }

func (m *memOrgs) Create(_ context.Context, o *model.Organisation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == o.UserID {
			return repository.ErrProfileExists
		}
	}
	m.next++
	o.ID = m.next
	o.Status = model.ReviewPending
	cp := *o
	m.rows[o.ID] = &cp
	return nil
}

func (m *memOrgs) UpdateByUser(_ context.Context, o *model.Organisation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if r.UserID == o.UserID {
			cp := *o
			cp.ID, cp.Status, cp.ApprovedBy = id, r.Status, r.ApprovedBy
			m.rows[id] = &cp
			return nil
		}
	}
	return repository.ErrOrganisationNotFound
}

func (m *memOrgs) GetByUser(_ context.Context, userID uint64) (*model.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrOrganisationNotFound
}

func (m *memOrgs) GetByID(_ context.Context, id uint64) (*model.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrOrganisationNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memOrgs) List(context.Context) ([]model.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Organisation
	for _, r := range m.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memOrgs) CountByType(context.Context) (model.OrganisationTypeCounts, error) {
	return model.OrganisationTypeCounts{}, nil
}

func (m *memOrgs) SetStatus(_ context.Context, id uint64, status string, reviewer uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrOrganisationNotFound
	}
	r.Status, r.ApprovedBy = status, &reviewer
	return nil
}

// ---- applications ----

// memApps is both the schedule-locked store behind ApplicationService and
// the read side used by listings.
type memApps struct {
	lock sync.Mutex
	mu   sync.Mutex
	rows map[uint64]model.EventApplication
	next uint64
}

func newMemApps() *memApps { return &memApps{rows: map[uint64]model.EventApplication{}} }

func (m *memApps) seed(a model.EventApplication) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	a.ID = m.next
	if a.Status == "" {
		a.Status = model.ApplicationPending
	}
	m.rows[a.ID] = a
	return a.ID
}

func (m *memApps) WithScheduleLock(ctx context.Context, fn func(ctx context.Context) error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fn(ctx)
}

func (m *memApps) GetByID(_ context.Context, id uint64) (*model.EventApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrApplicationNotFound
	}
	return &a, nil
}

func (m *memApps) FindOverlapping(_ context.Context, iv schedule.Interval, excludeID uint64) ([]schedule.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.Interval
	for id, a := range m.rows {
		if id != excludeID && schedule.Overlaps(iv, a.Interval()) {
			out = append(out, a.Interval())
		}
	}
	return out, nil
}

func (m *memApps) Create(_ context.Context, a *model.EventApplication) error {
	if a.Status == "" {
		a.Status = model.ApplicationPending
	}
	a.ID = m.seed(*a)
	return nil
}

func (m *memApps) Update(_ context.Context, a *model.EventApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.ID]; !ok {
		return repository.ErrApplicationNotFound
	}
	m.rows[a.ID] = *a
	return nil
}

func (m *memApps) sorted(keep func(model.EventApplication) bool) []model.EventApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EventApplication
	for _, a := range m.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *memApps) ListAll(context.Context) ([]model.EventApplication, error) {
	return m.sorted(func(model.EventApplication) bool { return true }), nil
}

func (m *memApps) ListByOrg(_ context.Context, orgID uint64) ([]model.EventApplication, error) {
	return m.sorted(func(a model.EventApplication) bool { return a.OrganisationID == orgID }), nil
}

func (m *memApps) ListUpcoming(_ context.Context, from time.Time, limit, offset int) ([]model.EventApplication, int, error) {
	all := m.sorted(func(a model.EventApplication) bool { return !a.StartTime.Before(from) })
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *memApps) Summary(_ context.Context, orgID *uint64) (model.ApplicationSummary, error) {
	var s model.ApplicationSummary
	for _, a := range m.sorted(func(a model.EventApplication) bool { return orgID == nil || a.OrganisationID == *orgID }) {
		s.Applications++
		if a.Status == model.ApplicationApproved {
			s.Approved++
		}
	}
	return s, nil
}

// ---- invoices and reports ----

type memInvoices struct {
	rows map[uint64]*model.Invoice
	next uint64
}

func newMemInvoices() *memInvoices { return &memInvoices{rows: map[uint64]*model.Invoice{}} }

func (m *memInvoices) Create(_ context.Context, inv *model.Invoice) error {
	m.next++
	inv.ID = m.next
	inv.PaymentStatus = model.PaymentUnpaid
	cp := *inv
	m.rows[inv.ID] = &cp
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id uint64) (*model.Invoice, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrInvoiceNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memInvoices) GetByApplication(_ context.Context, appID uint64) (*model.Invoice, error) {
	var found *model.Invoice
	for _, r := range m.rows {
		if r.ApplicationID == appID && (found == nil || r.ID > found.ID) {
			found = r
		}
	}
	if found == nil {
		return nil, repository.ErrInvoiceNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *memInvoices) RecordPayment(_ context.Context, id uint64, amount int64, paid time.Time, proof *string) error {
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrInvoiceNotFound
	}
	r.AmountPaidCents, r.DatePaid, r.ProofURL = &amount, &paid, proof
	return nil
}

func (m *memInvoices) SetStatus(_ context.Context, id uint64, status string) error {
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrInvoiceNotFound
	}
	r.PaymentStatus = status
	return nil
}

type memReports struct {
	rows map[uint64]*model.PostEventReport
}

func newMemReports() *memReports { return &memReports{rows: map[uint64]*model.PostEventReport{}} }

func (m *memReports) Upsert(_ context.Context, p *model.PostEventReport) error {
	p.ID = p.ApplicationID
	cp := *p
	m.rows[p.ApplicationID] = &cp
	return nil
}

func (m *memReports) GetByID(_ context.Context, id uint64) (*model.PostEventReport, error) {
	for _, r := range m.rows {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (m *memReports) GetByApplication(_ context.Context, appID uint64) (*model.PostEventReport, error) {
	r, ok := m.rows[appID]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) List(context.Context) ([]model.PostEventReport, error) {
	var out []model.PostEventReport
	for _, r := range m.rows {
		out = append(out, *r)
	}
	return out, nil
}

// ---- http helpers ----

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func bearer(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, uid, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }
