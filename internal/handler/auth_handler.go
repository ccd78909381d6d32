package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
)

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register signs up a new patient. The local user is created first;
// the directory Patient is best effort and its reference is attached
// when the create succeeds.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "all fields required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RolePatient,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique violation = dup email, but don't reveal that
			writeError(w, http.StatusConflict, "registration failed")
			return
		}
		h.logger.Error("creating user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if ref, err := h.dir.CreatePatient(r.Context(), req.FirstName, req.LastName, req.Email); err != nil {
		h.logger.Warn("directory patient create failed, user has no remote reference",
			"user_id", u.ID, "error", err)
	} else if err := h.store.AttachPatientRef(r.Context(), u.ID, ref); err != nil {
		h.logger.Warn("attaching patient reference failed", "user_id", u.ID, "error", err)
	} else {
		u.PatientRef = &ref
	}

	tok, err := h.issueSession(w, r, u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": u.ID, "token": tok})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	u, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, err := h.issueSession(w, r, u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	name, _ := h.booking.DisplayName(r.Context(), u)
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":      u.ID,
		"display_name": name,
		"token":        tok,
	})
}

// Refresh rotates the refresh token and issues a new access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("refresh_token")
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	rt, err := h.store.RefreshTokenByHash(r.Context(), auth.HashRefreshToken(c.Value))
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	u, err := h.store.UserByID(r.Context(), rt.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	rawRefresh, tokenHash, err := auth.GenerateRefreshToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	newID := uuid.New().String()
	if err := h.store.RotateRefreshToken(r.Context(), rt.ID, newID, u.ID, tokenHash,
		time.Now().Add(auth.RefreshTokenTTL)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	tok, err := auth.MakeToken(u, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	setSessionCookies(w, tok, rawRefresh)
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie("refresh_token"); err == nil && c.Value != "" {
		if rt, err := h.store.RefreshTokenByHash(r.Context(), auth.HashRefreshToken(c.Value)); err == nil {
			if err := h.store.RevokeAllRefreshTokens(r.Context(), rt.UserID); err != nil {
				h.logger.Warn("revoking refresh tokens failed", "user_id", rt.UserID, "error", err)
			}
		}
	}
	clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// issueSession creates the access token and a persisted refresh token
// and sets both as httponly cookies.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, u *model.User) (string, error) {
	tok, err := auth.MakeToken(u, h.secret)
	if err != nil {
		return "", err
	}
	rawRefresh, tokenHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return "", err
	}
	if _, err := h.store.CreateRefreshToken(r.Context(), u.ID, tokenHash,
		time.Now().Add(auth.RefreshTokenTTL)); err != nil {
		return "", err
	}
	setSessionCookies(w, tok, rawRefresh)
	return tok, nil
}

func setSessionCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name: "access_token", Value: access,
		HttpOnly: true, Path: "/", SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: "refresh_token", Value: refresh,
		HttpOnly: true, Path: "/auth/", SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "", Path: "/auth/", MaxAge: -1})
}
