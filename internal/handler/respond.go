package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/bandscore/internal/exam"
	appI18n "github.com/pavelanni/bandscore/internal/i18n"
)

const maxBodyBytes = 10 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errBadJSON marks request bodies that could not be decoded.
var errBadJSON = errors.New("bad json")

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return h.validate.Struct(dst)
}

// writeError maps err onto a status code and a localized message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = appI18n.Td(ctx, "ErrFieldInvalid", map[string]any{"Field": fe.Field(), "Rule": fe.Tag()})
		}
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  appI18n.T(ctx, "ErrInvalidInput"),
			Code:   "validation_failed",
			Fields: fields,
		})
		return
	}

	status, code, msgID := classify(err)
	body := errorBody{Error: appI18n.T(ctx, msgID), Code: code}
	if status < http.StatusInternalServerError {
		body.Detail = err.Error()
	} else {
		slog.Error("request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(ctx), "error", err)
	}
	writeJSON(w, status, body)
}

// fieldPath drops the top-level struct name, leaving e.g. "answers[0].questionNumber".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func classify(err error) (status int, code, msgID string) {
	switch {
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, "bad_json", "ErrBadJSON"
	case errors.Is(err, exam.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", "ErrInvalidInput"
	case errors.Is(err, exam.ErrNotFound):
		return http.StatusNotFound, "not_found", "ErrNotFound"
	case errors.Is(err, exam.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "ErrInvalidState"
	case errors.Is(err, exam.ErrConflict):
		return http.StatusConflict, "conflict", "ErrConflict"
	case errors.Is(err, exam.ErrUnavailable):
		return http.StatusServiceUnavailable, "assessor_unavailable", "ErrUnavailable"
	default:
		return http.StatusInternalServerError, "internal", "ErrInternal"
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, msgID string) {
	writeJSON(w, status, errorBody{Error: appI18n.T(r.Context(), msgID), Code: code})
}
