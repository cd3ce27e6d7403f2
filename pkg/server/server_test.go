package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisfs/trellis/pkg/namespace"
	contentmem "github.com/trellisfs/trellis/pkg/store/content/memory"
	nodesmem "github.com/trellisfs/trellis/pkg/store/nodes/memory"
)

// newTestServer builds an adapter over fresh in-memory backends. The content
// store is returned so tests can seed objects for listing.
func newTestServer(t *testing.T) (*Server, *contentmem.Store) {
	t.Helper()

	nodes := nodesmem.NewStore()
	content := contentmem.NewStore()
	activation := namespace.NewActivationCache(nodes, time.Minute)
	ns := namespace.New(nodes, content, nodes, nodes, activation)

	return New(Config{Listen: ":0"}, ns, nodes), content
}

// doJSON performs a request with an optional JSON body and decodes the
// response into out when non-nil.
func doJSON(t *testing.T, handler http.Handler, method, target string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}

	return rec
}

func enableDomain(t *testing.T, handler http.Handler, domain string) {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPut, "/domains/"+domain+"/activation", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

// uploadFile drives the full two-phase create for a path and returns the
// confirmed node id.
func uploadFile(t *testing.T, handler http.Handler, content *contentmem.Store, domain, path string, fid namespace.FileID, data []byte) {
	t.Helper()

	var pending namespace.PendingUpload
	rec := doJSON(t, handler, http.MethodPost, "/domains/"+domain+"/uploads", uploadRequest{Path: path}, &pending)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, pending.Token)
	require.Contains(t, pending.StorageKey, pending.Token)

	content.Put(fid, data)

	var stored storedResponse
	rec = doJSON(t, handler, http.MethodPut, "/domains/"+domain+"/uploads/"+pending.Token, storedRequest{FID: fid}, &stored)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotZero(t, stored.NodeID)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInactiveDomainRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/domains/1/paths/docs/a.txt", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/domains/1/uploads", uploadRequest{Path: "/a.txt"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadTranslateFlow(t *testing.T) {
	srv, content := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")
	uploadFile(t, handler, content, "1", "/docs/report.pdf", 42, []byte("pdf-bytes"))

	var translated translateResponse
	rec := doJSON(t, handler, http.MethodGet, "/domains/1/paths/docs/report.pdf", nil, &translated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, namespace.FileID(42), translated.FID)

	// Intermediate directories were vivified; listing the parent shows the
	// file with its content length.
	var listed listResponse
	rec = doJSON(t, handler, http.MethodGet, "/domains/1/paths/docs?list=1", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listed.Entries, 1)
	assert.Equal(t, "report.pdf", listed.Entries[0].Name)
	assert.Equal(t, int64(len("pdf-bytes")), listed.Entries[0].Size)
	assert.False(t, listed.Entries[0].IsDir)
}

func TestTranslateMissingPath(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")

	rec := doJSON(t, handler, http.MethodGet, "/domains/1/paths/no/such/file.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOnStoredUnknownToken(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")

	rec := doJSON(t, handler, http.MethodPut, "/domains/1/uploads/bogus-token", storedRequest{FID: 1}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRename(t *testing.T) {
	srv, content := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")
	uploadFile(t, handler, content, "1", "/inbox/draft.txt", 7, []byte("x"))

	rec := doJSON(t, handler, http.MethodPost, "/domains/1/rename",
		renameRequest{From: "/inbox/draft.txt", To: "/archive/2026/final.txt"}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var translated translateResponse
	rec = doJSON(t, handler, http.MethodGet, "/domains/1/paths/archive/2026/final.txt", nil, &translated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, namespace.FileID(7), translated.FID)

	rec = doJSON(t, handler, http.MethodGet, "/domains/1/paths/inbox/draft.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenameCollision(t *testing.T) {
	srv, content := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")
	uploadFile(t, handler, content, "1", "/a.txt", 1, []byte("a"))
	uploadFile(t, handler, content, "1", "/b.txt", 2, []byte("b"))

	rec := doJSON(t, handler, http.MethodPost, "/domains/1/rename",
		renameRequest{From: "/a.txt", To: "/b.txt"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeletePath(t *testing.T) {
	srv, content := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")
	uploadFile(t, handler, content, "1", "/docs/gone.txt", 9, []byte("bye"))

	var deleted deleteResponse
	rec := doJSON(t, handler, http.MethodDelete, "/domains/1/paths/docs/gone.txt", nil, &deleted)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, deleted.FID)
	assert.Equal(t, namespace.FileID(9), *deleted.FID)

	rec = doJSON(t, handler, http.MethodGet, "/domains/1/paths/docs/gone.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDirectoryWithChildren(t *testing.T) {
	srv, content := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")
	uploadFile(t, handler, content, "1", "/docs/keep.txt", 3, []byte("k"))

	rec := doJSON(t, handler, http.MethodDelete, "/domains/1/paths/docs", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDisableDomain(t *testing.T) {
	srv, content := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")
	uploadFile(t, handler, content, "1", "/a.txt", 1, []byte("a"))

	rec := doJSON(t, handler, http.MethodDelete, "/domains/1/activation", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/domains/1/paths/a.txt", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvalidRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	enableDomain(t, handler, "1")

	rec := doJSON(t, handler, http.MethodGet, "/domains/notanumber/paths/a.txt", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/domains/1/uploads", uploadRequest{Path: "relative/path.txt"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
