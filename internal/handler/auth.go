package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/config"
	"github.com/iliyamo/cop-side-events/internal/middleware"
	"github.com/iliyamo/cop-side-events/internal/model"
	"github.com/iliyamo/cop-side-events/internal/repository"
	"github.com/iliyamo/cop-side-events/internal/utils"
)

// Sign-in rejection messages shown to users.
const (
	msgNotVerified = "Account is not verified. Please check your emails and verify your account first."
	msgNoRole      = "Contact the administrator for a designated role."
	msgResetSent   = "A reset link has been sent to your email."
	msgUnknownUser = "User details not found, please register."
)

// Dashboards a client should open after sign-in.
const (
	NextSuperDashboard    = "super-dashboard"
	NextAdminDashboard    = "admin-dashboard"
	NextOrgDashboard      = "org-dashboard"
	NextOrgProfile        = "org-profile"
	NextActivistDashboard = "activist-dashboard"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Users     UserStore
	Tokens    TokenStore
	Orgs      OrganisationStore
	Tx        TxRunner
	Activator ActivationIssuer
	Mailer    ResetMailer
	Sessions  Sessions
	Clock     clock.Clock
}

// ----- DTOs -----

type registerReq struct {
	Name            string `json:"name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,signup_role"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}
type resetConfirmReq struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}
type changePasswordReq struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
	Next    string    `json:"next,omitempty"`
}

// Register creates an unverified account and emails the activation link.
// No tokens are issued until the account is activated.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if err := utils.CheckPasswordStrength(req.Password, req.Email); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, strings.TrimSpace(req.Name), req.Password, req.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return respondError(c, err)
	}

	resp := echo.Map{
		"user":    userPart{ID: uid, Email: req.Email, Name: req.Name, Role: req.Role},
		"message": "A verification email has been sent to your email address.",
	}
	if err := h.Activator.Issue(ctx, uid, req.Email, req.Name); err != nil {
		slog.ErrorContext(ctx, "activation mail failed", "user_id", uid, "err", err)
		resp["message"] = "Account created but the verification email could not be sent. Request a new link."
	}
	return c.JSON(http.StatusCreated, resp)
}

// ResendActivation issues a fresh activation link for an unverified
// account. The response does not reveal whether the email is registered.
func (h *AuthHandler) ResendActivation(c echo.Context) error {
	var req emailReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
	case err != nil:
		return respondError(c, err)
	case !u.IsVerified:
		if err := h.Activator.Issue(ctx, u.ID, u.Email, u.Name); err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "If the account exists and is not verified, a new link has been sent."})
}

// Activate redeems an activation token and marks the account verified.
func (h *AuthHandler) Activate(c echo.Context) error {
	raw := strings.TrimSpace(c.Param("token"))
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	err := h.Tx.WithinTx(ctx, func(ctx context.Context) error {
		uid, err := h.Tokens.ConsumeAction(ctx, model.PurposeActivation, utils.HashToken(raw), h.Clock.Now())
		if err != nil {
			return err
		}
		return h.Users.SetVerified(ctx, uid)
	})
	if errors.Is(err, repository.ErrTokenNotFound) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "activation link is invalid or has expired"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Your account has been verified. You can now sign in."})
}

// Login verifies credentials and returns a token pair plus the dashboard
// the client should open.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials."})
		}
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials."})
	}
	if !u.IsVerified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": msgNotVerified})
	}
	next, err := h.nextDashboard(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	if next == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": msgNoRole})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Sessions.Touch(ctx, u.ID); err != nil {
		slog.WarnContext(ctx, "session touch failed", "user_id", u.ID, "err", err)
	}
	resp.Next = next
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) nextDashboard(ctx context.Context, u model.User) (string, error) {
	switch u.Role {
	case model.RoleSuperAdmin:
		return NextSuperDashboard, nil
	case model.RoleAdmin:
		return NextAdminDashboard, nil
	case model.RoleActivist:
		return NextActivistDashboard, nil
	case model.RoleOrganisation:
		_, err := h.Orgs.GetByUser(ctx, u.ID)
		if errors.Is(err, repository.ErrOrganisationNotFound) {
			return NextOrgProfile, nil
		}
		if err != nil {
			return "", err
		}
		return NextOrgDashboard, nil
	}
	return "", nil
}

func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// PasswordReset emails a reset link. Unknown addresses get 404.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req emailReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgUnknownUser})
	}
	if err != nil {
		return respondError(c, err)
	}
	tok, err := utils.NewActionToken(h.Clock.Now(), h.Cfg.ResetTTL)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Tokens.StoreAction(ctx, u.ID, model.PurposePasswordReset, tok.Hash, tok.Exp); err != nil {
		return respondError(c, err)
	}
	if err := h.Mailer.SendPasswordReset(ctx, u.Email, u.Name, tok.Raw, h.Cfg.ResetTTL); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgResetSent})
}

// PasswordResetConfirm redeems a reset token and sets the new password.
// Every refresh token of the account is revoked. A rejected password
// leaves the token usable.
func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	var req resetConfirmReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	var uid uint64
	err := h.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		uid, err = h.Tokens.ConsumeAction(ctx, model.PurposePasswordReset, utils.HashToken(strings.TrimSpace(req.Token)), h.Clock.Now())
		if err != nil {
			return err
		}
		u, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}
		if err := utils.CheckPasswordStrength(req.Password, u.Email); err != nil {
			return err
		}
		if err := h.Users.SetPassword(ctx, uid, req.Password, h.Cfg.BcryptCost); err != nil {
			return err
		}
		return h.Tokens.RevokeAllForUser(ctx, uid)
	})
	if errors.Is(err, repository.ErrTokenNotFound) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset link is invalid or has expired"})
	}
	if err != nil {
		return respondError(c, err)
	}
	h.endSession(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"message": "Your password has been reset. Please sign in."})
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashToken(strings.TrimSpace(req.RefreshToken)))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one refresh token when refresh_token is sent, or every
// token of the bearer's account otherwise. The idle session is ended in
// both cases when the account is known.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if raw, ok := middleware.BearerToken(c); ok {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw); err == nil {
			uid, _ = claims.UserID()
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashToken(refreshToken)
		owner, err := h.Tokens.ValidateRefresh(ctx, hash)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return respondError(c, err)
		}
		h.endSession(ctx, owner)
	case uid != 0:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return respondError(c, err)
		}
		h.endSession(ctx, uid)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in account.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword replaces the password after checking the old one, then
// signs the account out everywhere.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req changePasswordReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Your old password was entered incorrectly."})
	}
	if err := utils.CheckPasswordStrength(req.NewPassword, u.Email); err != nil {
		return respondError(c, err)
	}
	if err := h.Users.SetPassword(ctx, uid, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return respondError(c, err)
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return respondError(c, err)
	}
	h.endSession(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"message": "Your password was successfully updated! Please Login Again"})
}

func (h *AuthHandler) endSession(ctx context.Context, uid uint64) {
	if err := h.Sessions.End(ctx, uid); err != nil {
		slog.WarnContext(ctx, "session end failed", "user_id", uid, "err", err)
	}
}
