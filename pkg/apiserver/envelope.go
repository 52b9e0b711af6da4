// Package apiserver is the thin REST transport wrapper (§6) around the
// Connector Registry, Execution Surface, and Tool Adapter. It owns no
// business logic of its own — every route renders a call into pkg/exec,
// pkg/connector, or pkg/mcptools as the shared response envelope.
package apiserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aionixone/openact/pkg/apperrors"
)

// Envelope is the §6 REST response shape shared by every route.
type Envelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata EnvelopeMeta   `json:"metadata"`
}

// EnvelopeMeta carries per-request bookkeeping.
type EnvelopeMeta struct {
	RequestID  string `json:"request_id"`
	Tenant     string `json:"tenant"`
	DurationMS *int64 `json:"duration_ms,omitempty"`
}

// requestContext extracts the tenant (X-Tenant header, default "default")
// and request id (X-Request-Id header, or freshly generated) per §6.
func requestContext(r *http.Request) (tenant, requestID string) {
	tenant = r.Header.Get("X-Tenant")
	if tenant == "" {
		tenant = "default"
	}
	requestID = r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return tenant, requestID
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, start time.Time, data any) {
	tenant, requestID := requestContext(r)
	d := time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Metadata: EnvelopeMeta{
			RequestID:  requestID,
			Tenant:     tenant,
			DurationMS: &d,
		},
	})
}

func writeError(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	tenant, requestID := requestContext(r)
	d := time.Since(start).Milliseconds()
	writeJSON(w, apperrors.Code(err), Envelope{
		Success: false,
		Error:   apperrors.SanitizeMessage(err.Error()),
		Metadata: EnvelopeMeta{
			RequestID:  requestID,
			Tenant:     tenant,
			DurationMS: &d,
		},
	})
}
