package http

import (
	"net/http"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/service"
)

type ProfileHandler struct {
	userSvc service.UserService
}

func NewProfileHandler(userSvc service.UserService) *ProfileHandler {
	return &ProfileHandler{userSvc: userSvc}
}

type profileResponse struct {
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	user, profile, err := h.userSvc.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user, Profile: profile})
}

type updateProfileRequest struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Bio          string `json:"bio"`
	Website      string `json:"website"`
	SocialHandle string `json:"social_handle"`
	ProfileImage string `json:"profile_image"`
	CoverImage   string `json:"cover_image"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.userSvc.UpdateProfile(r.Context(), &domain.Profile{
		UserID:       userID,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		Website:      req.Website,
		SocialHandle: req.SocialHandle,
		ProfileImage: req.ProfileImage,
		CoverImage:   req.CoverImage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
