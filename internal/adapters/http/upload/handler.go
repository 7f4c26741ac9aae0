package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	appupload "3tcapital/gstlens/internal/application/upload"
	"3tcapital/gstlens/internal/core/extraction"
	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	httperrors "3tcapital/gstlens/internal/infrastructure/http"
)

// FormField is the multipart field carrying the document.
const FormField = "file"

// Multipart framing (boundaries, part headers) on top of the document itself.
const formOverhead = 64 << 10

// ReservationHeader carries the reservation id of an upload back to the client.
const ReservationHeader = "X-Reservation-ID"

// Coordinator runs an admitted upload under the credit protocol.
type Coordinator interface {
	Handle(ctx context.Context, req appupload.Request) (appupload.Result, error)
}

// Config bounds what the handler admits.
type Config struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Handler admits invoice uploads and maps extraction outcomes to HTTP.
type Handler struct {
	coordinator Coordinator
	maxBytes    int64
	allowed     map[string]struct{}
	log         *slog.Logger
}

func NewHandler(coordinator Coordinator, cfg Config, log *slog.Logger) *Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &Handler{
		coordinator: coordinator,
		maxBytes:    cfg.MaxBytes,
		allowed:     allowed,
		log:         log,
	}
}

// Upload handles POST /upload. Type and size are checked before any credit is reserved.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := ctxutil.GetUser(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"authentication required"}, h.log)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	file, header, err := r.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "File too large", nil, h.log)
			return
		}
		httperrors.WriteError(w, http.StatusBadRequest, "Invalid upload", []string{`multipart field "file" is required`}, h.log)
		return
	}
	defer file.Close()

	// One byte past the cap is enough to tell the file is too large.
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Invalid upload", []string{"unable to read file"}, h.log)
		return
	}

	mimeType := h.contentType(header.Header.Get("Content-Type"), data)
	if _, ok := h.allowed[mimeType]; !ok {
		h.log.Info("upload.rejected_type", "user_id", user.ID, "content_type", mimeType)
		httperrors.WriteError(w, http.StatusBadRequest, "Unsupported file type", []string{mimeType}, h.log)
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.log.Info("upload.rejected_size", "user_id", user.ID, "max_bytes", h.maxBytes)
		httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "File too large", nil, h.log)
		return
	}

	res, err := h.coordinator.Handle(r.Context(), appupload.Request{
		UserID:   user.ID,
		Data:     data,
		MIMEType: mimeType,
	})
	if res.ReservationID != "" {
		w.Header().Set(ReservationHeader, res.ReservationID)
	}
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	httperrors.WriteSuccess(w, res.Record, h.log)
}

// contentType resolves the media type of a part, sniffing the content when
// the client declared nothing useful.
func (h *Handler) contentType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err == nil && mediaType != "application/octet-stream" {
		return strings.ToLower(mediaType)
	}
	sniffed, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return "application/octet-stream"
	}
	return sniffed
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	f := extraction.AsFailure(err)

	switch f.Kind {
	case extraction.KindInsufficientCredit:
		httperrors.WriteErrorKind(w, http.StatusPaymentRequired, "Insufficient credits", string(f.Kind), nil, h.log)
	case extraction.KindSchema:
		details := make([]string, 0, len(f.Details))
		for _, d := range f.Details {
			details = append(details, d.String())
		}
		httperrors.WriteErrorKind(w, http.StatusUnprocessableEntity, "Extraction failed", string(f.Kind), details, h.log)
	case extraction.KindOracle, extraction.KindMalformedOutput:
		httperrors.WriteErrorKind(w, http.StatusUnprocessableEntity, "Extraction failed", string(f.Kind), nil, h.log)
	default:
		if errors.Is(err, appupload.ErrLedgerUnavailable) {
			httperrors.WriteErrorKind(w, http.StatusServiceUnavailable, "Credit service unavailable", string(f.Kind), nil, h.log)
			return
		}
		httperrors.WriteErrorKind(w, http.StatusInternalServerError, "Internal server error", string(f.Kind), nil, h.log)
	}
}
