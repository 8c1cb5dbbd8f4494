package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/delegraph/delegraph/pkg/collapse"
	apperrors "github.com/delegraph/delegraph/pkg/errors"
	"github.com/delegraph/delegraph/pkg/gen"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/pipeline"
	"github.com/delegraph/delegraph/pkg/resolve"
	"github.com/delegraph/delegraph/pkg/store"
)

// maxBodyBytes caps request bodies; delegation graphs of permitted size fit
// comfortably below this.
const maxBodyBytes = 32 << 20

// resolveRequest is the payload for POST /api/v1/resolve.
type resolveRequest struct {
	Graph   graph.Document   `json:"graph"`
	Options pipeline.Options `json:"options"`
}

// resolveResponse is the reply for POST /api/v1/resolve.
type resolveResponse struct {
	GraphHash  string          `json:"graph_hash"`
	Resolution *resolve.Result `json:"resolution"`
	CrossCheck *resolve.Result `json:"cross_check,omitempty"`
	Cached     bool            `json:"cached"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	g, err := graph.FromDocument(req.Graph)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "build graph"))
		return
	}

	req.Options.Logger = s.logger
	result, err := s.runner.Execute(r.Context(), g, req.Options)
	if err != nil && !errors.Is(err, resolve.ErrNonConvergence) {
		writeError(w, classifyResolveError(err))
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		GraphHash:  result.GraphHash,
		Resolution: result.Resolution,
		CrossCheck: result.CrossCheck,
		Cached:     result.CacheInfo.ResultHit,
	})
}

// collapseRequest is the payload for POST /api/v1/collapse.
type collapseRequest struct {
	Graph graph.Document `json:"graph"`
}

// collapseResponse is the reply for POST /api/v1/collapse.
type collapseResponse struct {
	Graph  graph.Document               `json:"graph"`
	Cycles map[string][]collapse.Member `json:"cycles"`
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	var req collapseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	g, err := graph.FromDocument(req.Graph)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "build graph"))
		return
	}
	if err := g.Validate(); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "validate graph"))
		return
	}

	collapsed, err := collapse.Collapse(g)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidCycle, err, "collapse"))
		return
	}

	writeJSON(w, http.StatusOK, collapseResponse{
		Graph:  graph.ToDocument(collapsed.Graph),
		Cycles: collapsed.Cycles,
	})
}

// generateRequest is the payload for POST /api/v1/generate.
type generateRequest struct {
	Nodes int   `json:"nodes"`
	Loops int   `json:"loops,omitempty"`
	Seed  int64 `json:"seed,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Nodes < 1 || req.Nodes > 100_000 {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "nodes must be between 1 and 100000"))
		return
	}

	adj, nodes := gen.Delegations(req.Nodes, req.Loops, req.Seed)
	weights := make(map[string]float64, len(nodes))
	for _, id := range nodes {
		weights[id] = 1
	}
	g, err := graph.FromMap(adj, weights)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "build graph"))
		return
	}

	writeJSON(w, http.StatusOK, graph.ToDocument(g))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "list runs"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "run %s not found", id))
		return
	}
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "get run"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// classifyResolveError maps pipeline failures to API error codes.
func classifyResolveError(err error) error {
	switch {
	case apperrors.GetCode(err) != "":
		return err
	case errors.Is(err, resolve.ErrSingular):
		return apperrors.Wrap(apperrors.ErrCodeSingularSystem, err, "resolve")
	case errors.Is(err, resolve.ErrInfeasible):
		return apperrors.Wrap(apperrors.ErrCodeLPInfeasible, err, "resolve")
	case errors.Is(err, graph.ErrWeightSum),
		errors.Is(err, graph.ErrAbsorberDelegates):
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "validate graph")
	default:
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "resolve")
	}
}

// decodeJSON decodes a request body with a size cap and strict field checking.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps an error to a status code and writes the JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidGraph,
		apperrors.ErrCodeInvalidCycle, apperrors.ErrCodeInvalidEngine:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeSingularSystem, apperrors.ErrCodeLPInfeasible,
		apperrors.ErrCodeNoConvergence:
		status = http.StatusUnprocessableEntity
	}

	var body errorBody
	body.Error.Code = string(code)
	if body.Error.Code == "" {
		body.Error.Code = string(apperrors.ErrCodeInternal)
	}
	body.Error.Message = apperrors.UserMessage(err)
	writeJSON(w, status, body)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
