package http

import (
	"net/http"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/service"

	"github.com/gorilla/mux"
)

type MemoryHandler struct {
	memorySvc service.MemoryService
}

func NewMemoryHandler(memorySvc service.MemoryService) *MemoryHandler {
	return &MemoryHandler{memorySvc: memorySvc}
}

type createMemoryRequest struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	FileURL     string   `json:"file_url"`
	FileName    string   `json:"file_name"`
	FileSize    string   `json:"file_size"`
	Tags        []string `json:"tags"`
}

func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req createMemoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	memory := &domain.Memory{
		UserID:      userID,
		Title:       req.Title,
		Type:        domain.MemoryType(req.Type),
		Description: req.Description,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		Tags:        req.Tags,
	}
	if err := h.memorySvc.CreateMemory(r.Context(), memory); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, memory)
}

func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	memories, err := h.memorySvc.ListMemories(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

func (h *MemoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	memory, err := h.memorySvc.ToggleFavorite(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memory)
}
