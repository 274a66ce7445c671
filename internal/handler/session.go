package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/bandscore/internal/model"
)

type startSessionRequest struct {
	ExamID     string `json:"examId" validate:"required"`
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"max=50"`
	NationalID string `json:"nationalId" validate:"required,max=100"`
}

type answersRequest struct {
	Answers []model.StudentAnswer `json:"answers" validate:"dive"`
}

type writingRequest struct {
	Task1 string `json:"task1"`
	Task2 string `json:"task2"`
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, created, err := h.svc.Start(r.Context(), req.ExamID, model.Candidate{
		Name:       req.Name,
		Phone:      req.Phone,
		NationalID: req.NationalID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSubmitListening(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.svc.SubmitListening(r.Context(), chi.URLParam(r, "sessionID"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSubmitReading(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.svc.SubmitReading(r.Context(), chi.URLParam(r, "sessionID"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSubmitWriting(w http.ResponseWriter, r *http.Request) {
	var req writingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.svc.SubmitWriting(r.Context(), chi.URLParam(r, "sessionID"), model.WritingAnswers{
		Task1: req.Task1,
		Task2: req.Task2,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleGradeTest(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.svc.GradeTest(r.Context(), chi.URLParam(r, "testID"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
