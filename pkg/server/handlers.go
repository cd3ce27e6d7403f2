package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trellisfs/trellis/internal/logger"
	"github.com/trellisfs/trellis/pkg/namespace"
)

// Request and response shapes. Paths are always full logical paths
// ("/dir/sub/name"); domains ride in the URL.

type uploadRequest struct {
	Path string `json:"path"`
}

type storedRequest struct {
	FID namespace.FileID `json:"fid"`
}

type storedResponse struct {
	NodeID namespace.NodeID `json:"node_id"`
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type translateResponse struct {
	FID namespace.FileID `json:"fid"`
}

type listResponse struct {
	Entries []namespace.DirEntry `json:"entries"`
}

type deleteResponse struct {
	FID *namespace.FileID `json:"fid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleHealth probes the node store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Healthcheck(r.Context()); err != nil {
		logger.Error("healthcheck failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetPath translates a path to its fid, or lists the directory when
// ?list=1 is set.
func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}
	path := "/" + chi.URLParam(r, "*")

	if r.URL.Query().Get("list") == "1" {
		entries, err := s.ns.ListPath(r.Context(), domain, path)
		if err != nil {
			writeError(w, err)
			return
		}
		if entries == nil {
			entries = []namespace.DirEntry{}
		}
		writeJSON(w, http.StatusOK, listResponse{Entries: entries})
		return
	}

	fid, err := s.ns.TranslatePath(r.Context(), domain, path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{FID: fid})
}

// handleDeletePath removes the mapping at a path and cleans up its content.
func (s *Server) handleDeletePath(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}
	path := "/" + chi.URLParam(r, "*")

	fid, err := s.ns.DeletePath(r.Context(), domain, path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{FID: fid})
}

// handleInterceptCreate announces an upload and returns the storage key to
// upload under.
func (s *Server) handleInterceptCreate(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	pending, err := s.ns.InterceptCreate(r.Context(), domain, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pending)
}

// handleOnStored confirms an announced upload with its assigned fid.
func (s *Server) handleOnStored(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req storedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	nodeID, err := s.ns.OnStored(r.Context(), token, req.FID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storedResponse{NodeID: nodeID})
}

// handleRename moves a path, vivifying the destination directory chain.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.ns.RenamePath(r.Context(), domain, req.From, req.To); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEnableDomain turns the namespace feature on for a domain.
func (s *Server) handleEnableDomain(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}

	if err := s.ns.EnableDomain(r.Context(), domain); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDisableDomain turns the namespace feature off for a domain.
func (s *Server) handleDisableDomain(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}

	if err := s.ns.DisableDomain(r.Context(), domain); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// domainParam parses the domain id from the URL, writing a 400 on failure.
func domainParam(w http.ResponseWriter, r *http.Request) (namespace.DomainID, bool) {
	raw := chi.URLParam(r, "domain")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid domain id: " + raw})
		return 0, false
	}
	return namespace.DomainID(id), true
}

// writeError maps a namespace error code to an HTTP status. Infrastructure
// errors surface as 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	var nsErr *namespace.Error
	if !errors.As(err, &nsErr) {
		logger.Error("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch nsErr.Code {
	case namespace.CodeInvalidPath:
		status = http.StatusBadRequest
	case namespace.CodeNotFound:
		status = http.StatusNotFound
	case namespace.CodeDuplicate, namespace.CodeHasChildren, namespace.CodeRenameFailed:
		status = http.StatusConflict
	case namespace.CodeDomainInactive:
		status = http.StatusForbidden
	case namespace.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, errorResponse{Error: nsErr.Error()})
}

// writeJSON encodes v with the proper content type.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response failed: %v", err)
	}
}
