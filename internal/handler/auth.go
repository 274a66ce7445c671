package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/bandscore/internal/i18n"
	"github.com/pavelanni/bandscore/internal/model"
)

const tokenIssuer = "bandscore"

// Claims are carried in the bearer token. Subject is the user ID and ID
// is the auth session, so deleting the session revokes the token.
type Claims struct {
	Role model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) issueToken(u *model.User, sess model.AuthSession) (string, error) {
	claims := &Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        sess.ID,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(h.config.JWTSecret)
}

func (h *Handler) parseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return h.config.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// requireAuth checks the bearer token and its backing auth session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
			return
		}
		claims, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Debug("rejected token", "error", err)
			writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
			return
		}

		authSess, err := h.accounts.GetAuthSession(r.Context(), claims.ID)
		if err != nil {
			writeError(w, r, fmt.Errorf("get auth session: %w", err))
			return
		}
		if authSess == nil {
			writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
			return
		}

		user, err := h.accounts.GetUserByID(r.Context(), authSess.UserID)
		if err != nil {
			writeError(w, r, fmt.Errorf("get user: %w", err))
			return
		}
		if user == nil || !user.Active {
			writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		ctx = model.ContextWithAuthSession(ctx, authSess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "ErrUnauthorized")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeStatus(w, r, http.StatusForbidden, "forbidden", "ErrForbidden")
		})
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.accounts.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, r, fmt.Errorf("get user: %w", err))
		return
	}
	if user == nil {
		writeStatus(w, r, http.StatusUnauthorized, "invalid_credentials", "ErrInvalidCredentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeStatus(w, r, http.StatusUnauthorized, "invalid_credentials", "ErrInvalidCredentials")
		return
	}
	if !user.Active {
		writeStatus(w, r, http.StatusForbidden, "account_disabled", "ErrAccountDisabled")
		return
	}

	sess, err := h.accounts.CreateAuthSession(r.Context(), user.ID, h.config.TokenTTL)
	if err != nil {
		writeError(w, r, fmt.Errorf("create auth session: %w", err))
		return
	}
	token, err := h.issueToken(user, sess)
	if err != nil {
		writeError(w, r, fmt.Errorf("sign token: %w", err))
		return
	}
	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := model.AuthSessionFromContext(r.Context()); id != "" {
		if err := h.accounts.DeleteAuthSession(r.Context(), id); err != nil {
			writeError(w, r, fmt.Errorf("delete auth session: %w", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": appI18n.T(r.Context(), "LoggedOut")})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}
