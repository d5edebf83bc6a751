package asset

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/binarylab/asset-service/internal/response"
	"github.com/binarylab/asset-service/internal/upload"
)

// Handler holds HTTP handlers for asset endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new asset Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// deleteRequest is the body for single-asset deletion.
type deleteRequest struct {
	URL string `json:"url"`
}

// deleteManyRequest is the body for multi-asset deletion.
type deleteManyRequest struct {
	URLs []string `json:"urls"`
}

// Upload godoc
//
//	@Summary		Upload an asset
//	@Description	Uploads a single file (multipart field "file") and returns its stored URL.
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	response.Envelope{data=ImageData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/assets/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	f, _, err := upload.Single(r, "file", &upload.Constraints{Required: true})
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.svc.Upload(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, data)
}

// UploadMultiple godoc
//
//	@Summary		Upload several assets
//	@Description	Uploads all files under the multipart field "files" and returns their stored URLs in input order.
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			files	formData	file	true	"Files to upload"
//	@Success		201		{object}	response.Envelope{data=[]ImageData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/assets/upload-multiple [post]
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	files, _, err := upload.Array(r, "files", &upload.Constraints{Required: true})
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.svc.UploadMany(r.Context(), files)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, data)
}

// Delete godoc
//
//	@Summary		Delete an asset
//	@Description	Removes the object behind a stored URL. Deleting an already absent object succeeds.
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		deleteRequest	true	"Stored URL to delete"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/assets [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		response.BadRequest(w, "field 'url' is required")
		return
	}

	if err := h.svc.Delete(r.Context(), req.URL); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, nil)
}

// DeleteMultiple godoc
//
//	@Summary		Delete several assets
//	@Description	Removes the objects behind stored URLs in order, stopping at the first failure.
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		deleteManyRequest	true	"Stored URLs to delete"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/assets/multiple [delete]
func (h *Handler) DeleteMultiple(w http.ResponseWriter, r *http.Request) {
	var req deleteManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		response.BadRequest(w, "field 'urls' is required")
		return
	}

	if err := h.svc.DeleteMany(r.Context(), req.URLs); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, nil)
}

// Update godoc
//
//	@Summary		Replace an asset
//	@Description	Uploads the new file (multipart field "file"), then deletes the object behind oldUrl (carried in the "data" JSON form field). The old object is only removed after the upload has succeeded.
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Replacement file"
//	@Param			data	formData	string	true	"JSON: {\"oldUrl\": \"...\"}"
//	@Success		200		{object}	response.Envelope{data=ImageData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/assets [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	f, values, err := upload.Single(r, "file", &upload.Constraints{Required: true})
	if err != nil {
		writeError(w, err)
		return
	}

	oldURL := values.String("oldUrl")
	if oldURL == "" {
		response.BadRequest(w, "field 'oldUrl' is required")
		return
	}

	data, err := h.svc.Update(r.Context(), oldURL, f)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, data)
}

// UpdateMultiple godoc
//
//	@Summary		Replace several assets
//	@Description	Uploads the new files (multipart field "files"), then deletes the objects behind oldUrls (carried in the "data" JSON form field) once every upload has succeeded.
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			files	formData	file	true	"Replacement files"
//	@Param			data	formData	string	true	"JSON: {\"oldUrls\": [\"...\"]}"
//	@Success		200		{object}	response.Envelope{data=[]ImageData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/assets/multiple [put]
func (h *Handler) UpdateMultiple(w http.ResponseWriter, r *http.Request) {
	files, values, err := upload.Array(r, "files", &upload.Constraints{Required: true})
	if err != nil {
		writeError(w, err)
		return
	}

	oldURLs := values.Strings("oldUrls")
	if len(oldURLs) == 0 {
		response.BadRequest(w, "field 'oldUrls' is required")
		return
	}

	data, err := h.svc.UpdateMany(r.Context(), oldURLs, files)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, data)
}

// writeError maps validation failures to 400 with their message verbatim and
// everything else (storage, network) to a generic 500. Storage errors are
// already logged with full cause where they occur.
func writeError(w http.ResponseWriter, err error) {
	var ve *upload.Error
	if errors.As(err, &ve) {
		response.BadRequest(w, ve.Message)
		return
	}
	response.InternalError(w)
}
