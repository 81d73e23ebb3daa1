package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"runtimed/internal/queue"
	"runtimed/internal/supervisor"
	"runtimed/pkg/types"
)

// ServerService defines the supervisor methods required by the HTTP API layer.
type ServerService interface {
	ListServers() []types.ServerConfig
	GetStatus(id string) (types.ServerStatusResponse, error)
	Start(id string) error
	Stop(id string) error
	UpdateConfig(id string, patch supervisor.ConfigPatch) (types.ServerConfig, error)
	RemoveServer(id string) error
	RunningCount() int
}

// QueueService defines the admission-queue methods required by the HTTP API layer.
type QueueService interface {
	Enqueue(requestID string, payload any, priority int) (string, error)
	Complete(requestID string, failure error)
	GetItem(requestID string) (queue.Item, bool)
	UpdatePriority(requestID string, priority int) bool
	Clear()
	Status() types.QueueStatusResponse
}

func NewMux(srv ServerService, q QueueService) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/servers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ServersResponse{Servers: srv.ListServers()})
	})

	r.Put("/servers/{id}", func(w http.ResponseWriter, r *http.Request) {
		var patch supervisor.ConfigPatch
		if !decodeJSONBody(w, r, &patch) {
			return
		}
		cfg, err := srv.UpdateConfig(chi.URLParam(r, "id"), patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	})

	r.Delete("/servers/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := srv.RemoveServer(chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/servers/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := srv.Start(id); err != nil {
			recordRunningServers(srv.RunningCount())
			writeServiceError(w, err)
			return
		}
		recordRunningServers(srv.RunningCount())
		status, err := srv.GetStatus(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	})

	r.Post("/servers/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := srv.Stop(id)
		recordRunningServers(srv.RunningCount())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		status, err := srv.GetStatus(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	})

	r.Get("/servers/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		status, err := srv.GetStatus(chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	})

	r.Post("/queue", func(w http.ResponseWriter, r *http.Request) {
		var req types.EnqueueRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		id, err := q.Enqueue(req.RequestID, req.Payload, req.Priority)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		recordQueueDepth(q.Status())
		writeJSON(w, http.StatusAccepted, types.EnqueueResponse{
			RequestID: id,
			Status:    string(queue.StatusPending),
		})
	})

	r.Post("/queue/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		var req types.CompleteRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		var failure error
		if req.Error != "" {
			failure = errors.New(req.Error)
		}
		// No-op for unknown ids; completion is idempotent from the
		// caller's point of view.
		q.Complete(chi.URLParam(r, "id"), failure)
		recordQueueDepth(q.Status())
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/queue/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		it, ok := q.GetItem(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "request not found: "+id)
			return
		}
		writeJSON(w, http.StatusOK, itemResponse(it))
	})

	r.Patch("/queue/{id}/priority", func(w http.ResponseWriter, r *http.Request) {
		var req types.PriorityUpdateRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		if !q.UpdatePriority(id, req.Priority) {
			writeJSONError(w, http.StatusNotFound, "no waiting request: "+id)
			return
		}
		it, _ := q.GetItem(id)
		writeJSON(w, http.StatusOK, itemResponse(it))
	})

	r.Delete("/queue", func(w http.ResponseWriter, r *http.Request) {
		q.Clear()
		recordQueueDepth(q.Status())
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/queue/status", func(w http.ResponseWriter, r *http.Request) {
		st := q.Status()
		recordQueueDepth(st)
		writeJSON(w, http.StatusOK, st)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSONBody enforces content type and body size, decoding into dst.
// Writes the error response itself and returns false on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

func itemResponse(it queue.Item) types.QueueItemResponse {
	resp := types.QueueItemResponse{
		RequestID: it.RequestID,
		Priority:  it.Priority,
		Status:    string(it.Status),
		QueuedAt:  it.QueuedAt.Format(time.RFC3339Nano),
		Error:     it.Err,
	}
	if it.StartedAt != nil {
		resp.StartedAt = it.StartedAt.Format(time.RFC3339Nano)
	}
	return resp
}
