package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"whatflower/internal/domain/entity"
)

// Identifier операции распознавания, доступные по HTTP.
// HTTP-клиенты анонимны: у них нет истории и блокировки повторных запросов.
type Identifier interface {
	IdentifyAnonymous(ctx context.Context, photo []byte) (*entity.Identification, error)
	Describe(ctx context.Context, label string) (*entity.FlowerInfo, error)
}

// NewRouter регистрирует маршруты API.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/identify", h.Identify).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/flowers/{name}", h.Flower).Methods(http.MethodGet, http.MethodOptions)

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
