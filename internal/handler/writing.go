package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/bandscore/internal/exam"
	appI18n "github.com/pavelanni/bandscore/internal/i18n"
	"github.com/pavelanni/bandscore/internal/model"
)

type writingSubmissionRequest struct {
	TestID     string `json:"testId" validate:"required"`
	TaskNumber int    `json:"taskNumber" validate:"oneof=1 2"`
	Response   string `json:"response"`
}

type receiptResponse struct {
	exam.Receipt
	Message string `json:"message,omitempty"`
}

type markRequest struct {
	Scores   model.CriteriaScores  `json:"scores"`
	Feedback model.WritingFeedback `json:"feedback"`
}

type queueResponse struct {
	Count       int                       `json:"count"`
	Summary     string                    `json:"summary"`
	Submissions []model.WritingSubmission `json:"submissions"`
}

func (h *Handler) handleSubmitWritingResponse(w http.ResponseWriter, r *http.Request) {
	var req writingSubmissionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var by string
	if u := model.UserFromContext(r.Context()); u != nil {
		by = u.Username
	}
	rc, err := h.svc.SubmitWritingResponse(r.Context(), req.TestID, req.TaskNumber, req.Response, by)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := receiptResponse{Receipt: rc}
	if !rc.MeetsRequirement {
		resp.Message = appI18n.Tpd(r.Context(), "WordsBelowMinimum", rc.WordCount, map[string]any{"Min": rc.MinWordsRequired})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetWritingSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.WritingSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleWritingQueue(w http.ResponseWriter, r *http.Request) {
	status := model.MarkingStatus(r.URL.Query().Get("status"))
	subs, err := h.svc.WritingQueue(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.WritingSubmission{}
	}
	writeJSON(w, http.StatusOK, queueResponse{
		Count:       len(subs),
		Summary:     appI18n.Tp(r.Context(), "SubmissionsPending", len(subs)),
		Submissions: subs,
	})
}

func (h *Handler) handleMarkSubmission(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user := model.UserFromContext(r.Context())
	sub, err := h.svc.MarkSubmission(r.Context(), chi.URLParam(r, "id"), req.Scores, req.Feedback, user.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleStartReview(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	sub, err := h.svc.StartReview(r.Context(), chi.URLParam(r, "id"), user.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleSuggestMarks(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.SuggestMarks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
