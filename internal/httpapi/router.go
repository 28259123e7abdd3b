package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// NewRouter регистрирует маршруты форума. metrics может быть nil.
func NewRouter(h *Handler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)

	r.HandleFunc("/assets/base.css", h.serveCSS).Methods(http.MethodGet)
	r.HandleFunc("/", h.showPosts).Methods(http.MethodGet)
	r.HandleFunc("/post", h.showCreatePost).Methods(http.MethodGet)
	r.HandleFunc("/post", h.handleCreatePost).Methods(http.MethodPost)
	r.HandleFunc("/post/{id:[0-9]+}", h.showPost).Methods(http.MethodGet)
	r.HandleFunc("/post/{id:[0-9]+}/events", h.threadEvents).Methods(http.MethodGet)
	r.HandleFunc("/reply/{id:[0-9]+}", h.showCreateReply).Methods(http.MethodGet)
	r.HandleFunc("/reply/{id:[0-9]+}", h.handleCreateReply).Methods(http.MethodPost)
	r.HandleFunc("/delete/{id:[0-9]+}", h.handleDeletePost).Methods(http.MethodPost)

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	return r
}

// RequestLogger присваивает запросу ID (X-Request-ID) и пишет access log
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		log.Printf("[%s] %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// RequestID возвращает ID запроса из контекста
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush нужен для server-sent events
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
