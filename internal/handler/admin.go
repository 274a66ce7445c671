package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/model"
)

type writingBandsRequest struct {
	Task1Band *float64 `json:"task1Band" validate:"required,min=0,max=9"`
	Task2Band *float64 `json:"task2Band" validate:"required,min=0,max=9"`
}

type createUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	DisplayName string `json:"displayName" validate:"max=128"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role" validate:"required,oneof=candidate examiner admin"`
}

func (h *Handler) handleRecordWritingBands(w http.ResponseWriter, r *http.Request) {
	var req writingBandsRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.svc.RecordWritingBands(r.Context(), chi.URLParam(r, "sessionID"), *req.Task1Band, *req.Task2Band)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	export, err := h.svc.Results(r.Context(), r.URL.Query().Get("examId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (h *Handler) handleListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.svc.Tests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tests)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadJSON, err))
		return
	}
	doc, err := exam.ParseDocument(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Import(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("imported content via admin", "tests", res.Tests, "exams", res.Exams)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("list users: %w", err))
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	existing, err := h.accounts.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, r, fmt.Errorf("get user: %w", err))
		return
	}
	if existing != nil {
		writeError(w, r, fmt.Errorf("username %q: %w", req.Username, exam.ErrConflict))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, fmt.Errorf("hash password: %w", err))
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	u := model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         model.UserRole(req.Role),
		Active:       true,
	}
	id, err := h.accounts.CreateUser(r.Context(), u)
	if err != nil {
		writeError(w, r, fmt.Errorf("create user: %w", err))
		return
	}
	created, err := h.accounts.GetUserByID(r.Context(), id)
	if err != nil || created == nil {
		u.ID = id
		created = &u
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: user ID %q", exam.ErrInvalidInput, chi.URLParam(r, "userID")))
		return
	}
	if me := model.UserFromContext(r.Context()); me != nil && me.ID == id {
		writeError(w, r, fmt.Errorf("%w: cannot deactivate yourself", exam.ErrInvalidState))
		return
	}
	active, err := h.accounts.ToggleUserActive(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("toggled user", "user_id", id, "active", active)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}
