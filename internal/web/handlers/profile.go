package handlers

import (
	"errors"
	"io"
	"net/http"

	"face-profile/internal/blob"
	"face-profile/internal/config"
	"face-profile/internal/imaging"
	"face-profile/internal/profile"
	"face-profile/internal/web/middleware"
)

// maxUploadSize bounds the multipart form including the picture upload.
const maxUploadSize = 20 << 20 // 20 MB

// ProfileHandler serves the profile view, the edit form and the picture
// workflows. The external services arrive as injected interfaces.
type ProfileHandler struct {
	directory profile.Directory
	workflow  *profile.Workflow
	blobs     profile.BlobStore
	countries []config.Country
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(directory profile.Directory, workflow *profile.Workflow, blobs profile.BlobStore, countries []config.Country) *ProfileHandler {
	return &ProfileHandler{
		directory: directory,
		workflow:  workflow,
		blobs:     blobs,
		countries: countries,
	}
}

// ProfileResponse is the JSON view of a user record.
type ProfileResponse struct {
	Login       string `json:"login"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	PictureURL  string `json:"picture_url,omitempty"`
	Enrolled    bool   `json:"enrolled"`
}

// resolveUser loads the directory record for the session's subject. It
// writes the error response itself and returns nil when resolution fails.
func (h *ProfileHandler) resolveUser(w http.ResponseWriter, r *http.Request) *profile.User {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, profile.ErrNotAuthenticated.Error())
		return nil
	}

	user, err := h.directory.GetUser(r.Context(), session.SubjectID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "could not load user profile")
		return nil
	}
	return user
}

func (h *ProfileHandler) profileResponse(user *profile.User) ProfileResponse {
	resp := ProfileResponse{
		Login:       user.Login,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		City:        user.City,
		CountryCode: user.CountryCode,
		Enrolled:    user.Picture.Enrolled(),
	}
	if user.Picture.ImageKey != "" {
		// Signed URL failures degrade to a profile without a picture link.
		if url, err := h.blobs.SignedURL(user.Picture.ImageKey, blob.SignedURLTTL); err == nil {
			resp.PictureURL = url
		}
	}
	return resp
}

// Get returns the current profile with a time-limited picture URL.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}
	respondJSON(w, http.StatusOK, h.profileResponse(user))
}

// EditFormResponse carries everything the client needs to render the edit
// form: current values, the CSRF token to submit with, and the country
// dropdown.
type EditFormResponse struct {
	Form      profile.EditForm `json:"form"`
	CSRFToken string           `json:"csrf_token"`
	Countries []config.Country `json:"countries"`
}

// EditForm returns the edit form prefilled from the directory record.
func (h *ProfileHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}
	session := middleware.GetSessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, EditFormResponse{
		Form:      profile.LoadForm(user),
		CSRFToken: session.CSRFToken,
		Countries: h.countries,
	})
}

// formRejection redisplays the submitted form with an error message or
// field-level errors, without any mutation having happened.
type formRejection struct {
	Error  string            `json:"error,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
	Form   profile.EditForm  `json:"form"`
}

// Update handles the edit form submission: plain field edits plus an
// optional picture upload that has to pass face verification.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	form := profile.EditForm{
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		Email:       r.FormValue("email"),
		City:        r.FormValue("city"),
		CountryCode: r.FormValue("country_code"),
	}

	upload, ok := h.readUpload(w, r, form)
	if !ok {
		return
	}

	updated, err := h.workflow.UpdateProfile(r.Context(), user, form, upload)
	if err != nil {
		h.respondWorkflowError(w, form, err)
		return
	}
	respondJSON(w, http.StatusOK, h.profileResponse(updated))
}

// readUpload extracts and normalizes the optional profile_image part.
// Returns (nil, true) when no image was submitted. On failure the error
// response is already written.
func (h *ProfileHandler) readUpload(w http.ResponseWriter, r *http.Request, form profile.EditForm) (*profile.Upload, bool) {
	file, _, err := r.FormFile("profile_image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read profile image")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read profile image")
		return nil, false
	}

	normalized, err := imaging.Normalize(data)
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, formRejection{
			Error: "uploaded file is not a supported image",
			Form:  form,
		})
		return nil, false
	}

	return &profile.Upload{Data: normalized, ContentType: "image/jpeg"}, true
}

// respondWorkflowError maps workflow failures onto the error taxonomy:
// business-rule rejections redisplay the form, remote failures become a
// generic upstream error.
func (h *ProfileHandler) respondWorkflowError(w http.ResponseWriter, form profile.EditForm, err error) {
	if ve, ok := profile.AsValidation(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, formRejection{Errors: ve.Fields, Form: form})
		return
	}
	if fe, ok := profile.AsFaceCount(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, formRejection{Error: fe.Error(), Form: form})
		return
	}
	if errors.Is(err, profile.ErrVerificationRejected) {
		respondJSON(w, http.StatusUnprocessableEntity, formRejection{Error: err.Error(), Form: form})
		return
	}
	respondError(w, http.StatusBadGateway, "profile update failed")
}

// DeletePicture removes the stored picture and the face enrollment.
func (h *ProfileHandler) DeletePicture(w http.ResponseWriter, r *http.Request) {
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	updated, err := h.workflow.DeletePicture(r.Context(), user)
	if err != nil {
		if errors.Is(err, profile.ErrIncompleteState) {
			respondError(w, http.StatusConflict, "no complete profile picture to delete")
			return
		}
		respondError(w, http.StatusBadGateway, "picture deletion failed")
		return
	}
	respondJSON(w, http.StatusOK, h.profileResponse(updated))
}
