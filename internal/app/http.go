package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"simpleblog/api/internal/messages"
	"simpleblog/api/internal/policy"
	"simpleblog/api/internal/store"
)

const syncTokenHeader = "x-blog-sync-token"

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/blog/registration" {
		writeJSON(w, http.StatusOK, s.service.Registration())
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/blog/edit-check" {
		s.handleEditCheck(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/blog/editors" {
		title := strings.TrimSpace(r.URL.Query().Get("title"))
		if title == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
			return
		}
		result, err := s.service.RecentEditors(r.Context(), title, messages.ResolveTag(r))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/internal/users/sync" {
		s.handleUserSync(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

// handleReady reports the database and, when configured, the identity cache.
// A failing cache leaves the service ready but degraded, since contributors
// are then resolved from the database directly.
func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbErr := s.service.Ping(ctx)
	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": readyCheck(dbErr),
	}
	if dbErr != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	if configured, err := s.service.PingIdentityCache(ctx); configured {
		checks["identityCache"] = readyCheck(err)
		if err != nil && status == "ready" {
			status = "degraded"
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status != "not_ready",
		"status": status,
		"checks": checks,
	})
}

func readyCheck(err error) map[string]any {
	if err != nil {
		return map[string]any{"status": "error", "error": err.Error()}
	}
	return map[string]any{"status": "ok"}
}

func (s *HTTPServer) handleEditCheck(w http.ResponseWriter, r *http.Request) {
	var body EditCheckInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	body.Lang = messages.ResolveTag(r)

	result, err := s.service.EvaluateEdit(r.Context(), body)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	var reason any
	if !result.Outcome.Allowed() {
		reason = string(result.Outcome.Reason)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"permitted": result.Outcome.Allowed(),
		"reason":    reason,
		"message":   result.Message,
		"title":     result.Title.PrefixedText(),
		"namespace": int(result.Title.Namespace),
		"rootText":  result.Title.RootText,
		"exists":    result.Title.Exists,
	})
}

func (s *HTTPServer) handleUserSync(w http.ResponseWriter, r *http.Request) {
	syncToken := strings.TrimSpace(r.Header.Get(syncTokenHeader))
	if syncToken == "" || syncToken != s.service.SyncToken() {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	var body UserSyncInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	user, err := s.service.SyncUser(r.Context(), body)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"userId":  user.ID,
		"name":    user.Name,
		"blocked": user.IsBlocked,
		"canEdit": user.CanEdit,
	})
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language, X-Request-ID, X-Blog-Sync-Token")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, policy.ErrEmptyTitle) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil
	}
	if errors.Is(err, store.ErrUserNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	log.Printf("request failed: %v", err)
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
