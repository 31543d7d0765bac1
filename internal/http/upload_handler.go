package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/service"
)

type UploadPresigner interface {
	Presign(ctx context.Context, filename, contentType string) (*service.PresignedUpload, error)
}

type UploadHandler struct {
	uploads UploadPresigner
	timeout time.Duration
}

func NewUploadHandler(uploads UploadPresigner, timeout time.Duration) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		timeout: timeout,
	}
}

type PresignRequestDTO struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type PresignResponseDTO struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
}

// POST /api/uploads/presign
func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PresignRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.uploads.Presign(ctx, req.Filename, req.ContentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, PresignResponseDTO{
		UploadURL: res.UploadURL,
		Key:       res.Key,
		PublicURL: res.PublicURL,
	})
}
