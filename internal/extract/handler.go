package extract

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credo/pkg/platform/httputil"
	"credo/pkg/requestcontext"
)

// DefaultMaxUpload caps an uploaded document.
const DefaultMaxUpload = 10 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type Response struct {
	Data Result `json:"data"`
}

type Handler struct {
	service   *Service
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(service *Service, maxUpload int64, logger *slog.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{service: service, maxUpload: maxUpload, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/extract", h.HandleExtract)
}

// HandleExtract handles POST /v1/extract with a multipart "file" field.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close() //nolint:errcheck // read-only multipart part

	document, err := io.ReadAll(file)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read upload", "request_id", requestID, "error", err)
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}

	result, err := h.service.Extract(ctx, document, uploadMIMEType(header.Header.Get("Content-Type")))
	if err != nil {
		h.logger.ErrorContext(ctx, "extraction failed",
			"request_id", requestID,
			"filename", header.Filename,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, Response{Data: result})
}

// uploadMIMEType keeps a declared PDF or image type and otherwise assumes PDF.
func uploadMIMEType(declared string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return DefaultMIMEType
	}
	switch mediaType {
	case "application/pdf", "image/png", "image/jpeg", "image/webp":
		return mediaType
	}
	return DefaultMIMEType
}
