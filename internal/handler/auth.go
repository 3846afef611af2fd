package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-backoffice/internal/config"
	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
	"github.com/iliyamo/travel-backoffice/internal/utils"
)

// UserStore persists back-office accounts.
type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	jwt               config.JWTConfig
	allowRegistration bool
	users             UserStore
	tokens            TokenStore
}

func NewAuthHandler(jwt config.JWTConfig, allowRegistration bool, users UserStore, tokens TokenStore) *AuthHandler {
	return &AuthHandler{jwt: jwt, allowRegistration: allowRegistration, users: users, tokens: tokens}
}

const authTimeout = 5 * time.Second

var errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Email atau password salah")
var errBadRefresh = echo.NewHTTPError(http.StatusUnauthorized, "Refresh token tidak valid")

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=8,max=32"`
	Role     string `json:"role" validate:"omitempty,oneof=TRAVEL_ADMIN FINANCE_ADMIN"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue creates an access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
	refresh, err := utils.NewRefreshToken(h.jwt.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return h.pair(u, refresh)
}

// pair signs an access token to go with an already stored refresh token.
func (h *AuthHandler) pair(u userPart, refresh utils.RefreshToken) (authResp, error) {
	access, err := utils.NewAccessToken(h.jwt.Secret, u.ID, u.Role, h.jwt.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register creates an admin account and signs it in.  Disabled unless
// ALLOW_REGISTRATION is set.
func (h *AuthHandler) Register(c echo.Context) error {
	if !h.allowRegistration {
		return echo.NewHTTPError(http.StatusForbidden, "Registrasi dinonaktifkan")
	}
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = model.RoleTravelAdmin
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	uid, err := h.users.Create(ctx, req.Email, req.Password, req.Role, h.jwt.BcryptCost)
	if err != nil {
		return err
	}
	resp, err := h.issue(ctx, userPart{ID: uid, Email: req.Email, Role: req.Role})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Registrasi berhasil", resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errBadCredentials
	}
	if err != nil {
		return err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errBadCredentials
	}
	resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Login berhasil", resp)
}

// Refresh exchanges a refresh token for a new pair.  The presented token is
// revoked; reusing it afterwards fails.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	next, err := utils.NewRefreshToken(h.jwt.RefreshTTLDays)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	uid, err := h.tokens.Rotate(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)),
		utils.HashRefreshRaw(next.Raw), next.Exp)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return errBadRefresh
	}
	if err != nil {
		return err
	}
	u, err := h.users.GetByID(ctx, uid)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if err != nil || !u.IsActive {
		_ = h.tokens.RevokeAllForUser(ctx, uid)
		return errBadRefresh
	}
	resp, err := h.pair(userPart{ID: u.ID, Email: u.Email, Role: u.Role}, next)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", resp)
}

// Logout revokes the refresh token in the body.  Without one, a valid
// bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	if raw != "" {
		err := h.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
		if errors.Is(err, repository.ErrTokenInvalid) {
			return errBadRefresh
		}
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}

	bearer, ok := middleware.BearerToken(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Sertakan refresh_token atau header Authorization")
	}
	claims, err := utils.ParseAccessToken(h.jwt.Secret, bearer)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token tidak valid")
	}
	uid, _ := claims.UserID()
	if err := h.tokens.RevokeAllForUser(ctx, uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	role := middleware.Role(c)
	return respond(c, http.StatusOK, "", echo.Map{
		"user_id": middleware.UserID(c),
		"role":    role,
		"actor":   model.ActorLabel(role, ""),
	})
}
