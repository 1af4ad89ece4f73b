package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/importer"
	"quotedesk/internal/model"
	"quotedesk/internal/store"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router  *gin.Engine
	store   *store.Store
	handler *Handler
}

var (
	alice = model.Identity{Username: "alice", Region: "Singapore"}
	bob   = model.Identity{Username: "bob", Region: "Hong Kong"}
	admin = model.Identity{Username: "root", Region: "HQ", Role: model.RoleAdmin}
)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "quotedesk.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	coord := importer.NewCoordinator(st, importer.NewMemorySessionStore(0), importer.Options{})
	h := NewHandler(st, coord, Options{SessionBackend: "memory"})
	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	return &testServer{router: r, store: st, handler: h}
}

func (s *testServer) do(t *testing.T, method, path string, body any, id *model.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setIdentity(req, id)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func setIdentity(req *http.Request, id *model.Identity) {
	if id == nil {
		return
	}
	req.Header.Set(HeaderUser, id.Username)
	req.Header.Set(HeaderRegion, id.Region)
	if id.Role != "" {
		req.Header.Set(HeaderRole, id.Role)
	}
}

// decode 解析响应信封，data 写入 out（可为 nil）
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("unmarshal data: %v body=%s", err, w.Body.String())
		}
	}
	return env
}

func expectOK(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	if env := decode(t, w, out); env.Code != CodeOK {
		t.Fatalf("unexpected code: %d body=%s", env.Code, w.Body.String())
	}
}
