package apiserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/exec"
	"github.com/aionixone/openact/pkg/mcptools"
	"github.com/aionixone/openact/pkg/trn"
)

// EncodeActionName base64url-encodes a TRN so it can travel as a single
// chi path segment (TRNs contain literal "/" which would otherwise split
// across segments).
func EncodeActionName(name trn.ResourceName) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name.String()))
}

// Server wires a Registry into the §6 REST surface.
type Server struct {
	Registry *connector.Registry
}

// NewRouter builds the chi router for /api/v1/*.
func NewRouter(reg *connector.Registry) http.Handler {
	s := &Server{Registry: reg}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/kinds", s.listKinds)
		r.Get("/actions", s.listActions)
		r.Get("/actions/{name}/schema", s.actionSchema)
		r.Post("/actions/{name}/execute", s.executeNamedAction)
		r.Post("/execute", s.executeByBody)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	writeSuccess(w, r, start, map[string]any{"status": "ok"})
}

func (s *Server) listKinds(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	writeSuccess(w, r, start, s.Registry.ConnectorMetadata())
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	all := make([]mcptools.Spec, 0)
	for _, kind := range s.Registry.RegisteredConnectors() {
		recs, err := s.Registry.Actions.ListActionsByConnector(r.Context(), kind)
		if err != nil {
			writeError(w, r, start, err)
			return
		}
		all = append(all, mcptools.BuildCatalog(recs)...)
	}
	writeSuccess(w, r, start, all)
}

func (s *Server) loadAction(r *http.Request) (name trn.ResourceName, err error) {
	raw := chi.URLParam(r, "name")
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return trn.ResourceName{}, apperrors.NewInvalidError("apiserver: action name must be base64url-encoded", err)
	}
	return trn.Parse(string(decoded))
}

func (s *Server) actionSchema(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := s.loadAction(r)
	if err != nil {
		writeError(w, r, start, apperrors.NewInvalidError("apiserver: invalid action name", err))
		return
	}
	rec, err := s.Registry.Actions.GetAction(r.Context(), name)
	if err != nil {
		writeError(w, r, start, err)
		return
	}
	if rec == nil {
		writeError(w, r, start, apperrors.NewNotFoundError("action not found: "+name.String(), nil))
		return
	}
	spec, err := mcptools.BuildSpec(rec)
	if err != nil {
		writeError(w, r, start, err)
		return
	}
	writeSuccess(w, r, start, spec)
}

type executeRequest struct {
	Input   map[string]any `json:"input"`
	DryRun  bool           `json:"dry_run,omitempty"`
	Timeout string         `json:"timeout,omitempty"`
}

func (req *executeRequest) options() (exec.Options, error) {
	opts := exec.Options{DryRun: req.DryRun}
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			return opts, apperrors.NewInvalidError("apiserver: invalid timeout", err)
		}
		opts.Timeout = d
	}
	return opts, nil
}

func decodeExecuteRequest(r *http.Request) (executeRequest, error) {
	var req executeRequest
	if r.Body == nil {
		return req, nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return req, apperrors.NewInvalidError("apiserver: invalid request body", err)
	}
	return req, nil
}

func (s *Server) executeNamedAction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := s.loadAction(r)
	if err != nil {
		writeError(w, r, start, apperrors.NewInvalidError("apiserver: invalid action name", err))
		return
	}
	req, err := decodeExecuteRequest(r)
	if err != nil {
		writeError(w, r, start, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, r, start, err)
		return
	}
	res := exec.ExecuteAction(r.Context(), s.Registry, name, req.Input, opts)
	respondExecResult(w, r, start, res)
}

type executeByNameRequest struct {
	executeRequest
	ActionName string `json:"action_name"`
}

func (s *Server) executeByBody(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req executeByNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, start, apperrors.NewInvalidError("apiserver: invalid request body", err))
		return
	}
	name, err := trn.Parse(req.ActionName)
	if err != nil {
		writeError(w, r, start, apperrors.NewInvalidError("apiserver: invalid action_name", err))
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, r, start, err)
		return
	}
	res := exec.ExecuteAction(r.Context(), s.Registry, name, req.Input, opts)
	respondExecResult(w, r, start, res)
}

func respondExecResult(w http.ResponseWriter, r *http.Request, start time.Time, res exec.Result) {
	if !res.Success {
		tenant, requestID := requestContext(r)
		d := time.Since(start).Milliseconds()
		writeJSON(w, statusForExecError(res.Error), Envelope{
			Success: false,
			Error:   apperrors.SanitizeMessage(res.Error),
			Metadata: EnvelopeMeta{RequestID: requestID, Tenant: tenant, DurationMS: &d},
		})
		return
	}
	writeSuccess(w, r, start, res)
}

func statusForExecError(msg string) int {
	if msg == "Execution timed out" {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
