package http

import (
	"context"
	"net/http"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/service"

	"github.com/gorilla/mux"
)

type SessionHandler struct {
	admissionSvc service.AdmissionService
	messageSvc   service.MessageService
}

func NewSessionHandler(admissionSvc service.AdmissionService, messageSvc service.MessageService) *SessionHandler {
	return &SessionHandler{admissionSvc: admissionSvc, messageSvc: messageSvc}
}

type createSessionRequest struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Department       string  `json:"department"`
	CourseCode       string  `json:"course_code"`
	Topic            string  `json:"topic"`
	Location         string  `json:"location"`
	Capacity         int32   `json:"capacity"`
	RequiresApproval bool    `json:"requires_approval"`
	ScheduledEnd     *string `json:"scheduled_end"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := &domain.Session{
		Title:            req.Title,
		Description:      req.Description,
		Department:       req.Department,
		CourseCode:       req.CourseCode,
		Topic:            req.Topic,
		Location:         req.Location,
		Capacity:         req.Capacity,
		RequiresApproval: req.RequiresApproval,
		ScheduledEnd:     req.ScheduledEnd,
	}
	if err := h.admissionSvc.CreateSession(r.Context(), userID, sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.admissionSvc.JoinByCode(r.Context(), req.Code, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type decisionRequest struct {
	UserID int32 `json:"user_id"`
}

type decisionResponse struct {
	State domain.MembershipState `json:"state"`
}

func (h *SessionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.admissionSvc.Approve)
}

func (h *SessionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.admissionSvc.Reject)
}

func (h *SessionHandler) decide(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, sessionID string, userID, actingUserID int32) (domain.MembershipState, error)) {
	actingUserID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := fn(r.Context(), mux.Vars(r)["id"], req.UserID, actingUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{State: state})
}

func (h *SessionHandler) Members(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	sessionID := mux.Vars(r)["id"]
	members, err := h.admissionSvc.ListMembers(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessions, err := h.admissionSvc.ListMySessions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	sess, err := h.admissionSvc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := h.admissionSvc.CompleteSession(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.SessionStatusCompleted)})
}

func (h *SessionHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	entries, err := h.admissionSvc.ListAttendance(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (h *SessionHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req postMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageSvc.PostMessage(r.Context(), mux.Vars(r)["id"], userID, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	messages, err := h.messageSvc.ListMessages(r.Context(), mux.Vars(r)["id"], userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
