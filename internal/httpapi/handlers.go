package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	app "whatflower/internal/application"
	"whatflower/internal/domain/entity"
	"whatflower/internal/infrastructure/classifier"
	"whatflower/internal/infrastructure/wikipedia"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc Identifier
}

func NewHandler(svc Identifier) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Identify принимает фото в поле формы "image".
func (h *Handler) Identify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read image", http.StatusBadRequest)
		return
	}

	log.Printf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	ident, err := h.svc.IdentifyAnonymous(r.Context(), photo)
	if err != nil {
		status, msg := identifyError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Identification error: %v", err)
		}
		http.Error(w, msg, status)
		return
	}

	writeJSON(w, http.StatusOK, ident)
}

func (h *Handler) Flower(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := h.svc.Describe(r.Context(), name)
	if err != nil {
		if errors.Is(err, wikipedia.ErrEmptyTitle) {
			http.Error(w, "Missing flower name", http.StatusBadRequest)
			return
		}
		log.Printf("Describe %q error: %v", name, err)
		http.Error(w, "Encyclopedia request failed", http.StatusBadGateway)
		return
	}
	if info.Missing {
		http.Error(w, "Flower not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func identifyError(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrEmptyPhoto):
		return http.StatusBadRequest, "Empty image"
	case errors.Is(err, classifier.ErrInvalidImage):
		return http.StatusBadRequest, "Invalid image format. Supported: JPEG, PNG"
	case errors.Is(err, app.ErrPoorQuality):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, entity.ErrNoClassification):
		return http.StatusUnprocessableEntity, "Flower not recognized"
	default:
		return http.StatusInternalServerError, "Identification failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
