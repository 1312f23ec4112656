// Package transport exposes a workspace over a small JSON HTTP API routed
// with chi.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/metrics"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// UserHeader carries the numeric id of the calling user.
const UserHeader = "X-User-ID"

// errorHandler tries to handle a workspace error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the workspace API.
type Server struct {
	ws            types.Workspace
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server over an attached workspace.
func NewServer(ws types.Workspace, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ws:     ws,
		logger: logger,
		errorHandlers: []errorHandler{
			sentinelHandler(types.ErrNotFound, http.StatusNotFound, "not_found"),
			sentinelHandler(types.ErrForbidden, http.StatusForbidden, "forbidden"),
			sentinelHandler(types.ErrConflict, http.StatusConflict, "conflict"),
			sentinelHandler(types.ErrPropertyLimit, http.StatusConflict, "property_limit"),
			sentinelHandler(types.ErrTypeMismatch, http.StatusBadRequest, "type_mismatch"),
			sentinelHandler(types.ErrInvalidID, http.StatusBadRequest, "invalid_id"),
			sentinelHandler(types.ErrInvalidName, http.StatusBadRequest, "invalid_name"),
			sentinelHandler(types.ErrInvalidValueType, http.StatusBadRequest, "invalid_value_type"),
			sentinelHandler(types.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"),
			sentinelHandler(types.ErrInvalidDirection, http.StatusBadRequest, "invalid_direction"),
			sentinelHandler(types.ErrDetached, http.StatusServiceUnavailable, "detached"),
		},
	}
}

// Router builds the chi router with middleware and every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(requestLogMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.listCollections)
		r.Post("/", s.createCollection)
		r.Route("/{collectionID}", func(r chi.Router) {
			r.Get("/", s.getCollection)
			r.Patch("/", s.renameCollection)
			r.Delete("/", s.deleteCollection)

			r.Get("/properties", s.listProperties)
			r.Post("/properties", s.createProperty)
			r.Get("/pages", s.listPages)
			r.Post("/pages", s.createPage)
			r.Get("/filters", s.listFilters)
			r.Post("/filters", s.createFilter)
			r.Get("/filters/available", s.availableFilters)
			r.Get("/sort", s.getSort)
			r.Put("/sort", s.setSort)
			r.Delete("/sort", s.clearSort)
		})
	})

	r.Route("/properties/{propertyID}", func(r chi.Router) {
		r.Get("/", s.getProperty)
		r.Patch("/", s.renameProperty)
		r.Post("/move", s.moveProperty)
		r.Delete("/", s.deleteProperty)
	})

	r.Route("/pages/{pageID}", func(r chi.Router) {
		r.Get("/", s.getPage)
		r.Patch("/", s.retitlePage)
		r.Delete("/", s.deletePage)
		r.Get("/content", s.getContent)
		r.Put("/content", s.putContent)
		r.Get("/values/{propertyID}", s.getValue)
		r.Put("/values/{propertyID}", s.putValue)
	})

	r.Route("/filters/{filterID}", func(r chi.Router) {
		r.Get("/", s.getFilter)
		r.Put("/", s.updateFilter)
		r.Delete("/", s.deleteFilter)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// decode reads a JSON request body into v, replying 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the named URL parameter as a positive id, replying 400 on
// failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// authContext builds the caller identity from UserHeader and the chi request
// id. A missing header is the anonymous user 0.
func authContext(w http.ResponseWriter, r *http.Request) (types.AuthContext, bool) {
	var userID int64
	if raw := r.Header.Get(UserHeader); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			writeError(w, http.StatusUnauthorized, "bad_user", UserHeader+" must be a non-negative integer")
			return types.AuthContext{}, false
		}
		userID = id
	}
	auth := types.NewAuthContext(userID)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		auth.RequestID = rid
	}
	return auth, true
}
