package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tobias-gill/Figshare-desktop/internal/articleservice"
	"github.com/tobias-gill/Figshare-desktop/internal/figshare"
	"github.com/tobias-gill/Figshare-desktop/internal/index"
	"github.com/tobias-gill/Figshare-desktop/internal/library"
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

type stubDirectory struct{ err error }

func (d stubDirectory) Categories(context.Context) (map[int64]string, error) {
	return map[int64]string{1: "Physics"}, d.err
}

func (d stubDirectory) Licenses(context.Context) (map[string]string, error) {
	return map[string]string{"1": "CC BY"}, d.err
}

func (d stubDirectory) Projects(context.Context) ([]figshare.Project, error) {
	return []figshare.Project{{ID: 7, Title: "STM data"}}, d.err
}

type stubQueue struct {
	ids []string
	err error
}

func (q *stubQueue) Enqueue(id string) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *stubQueue) Pending() int { return len(q.ids) }

type stubRemote struct{}

func (stubRemote) Article(context.Context, int64) (*figshare.ArticleRecord, error) {
	return nil, errors.New("offline")
}

func (stubRemote) PublicModifiedDate(context.Context, int64) (string, error) {
	return "", errors.New("offline")
}

func (stubRemote) Collections(context.Context) ([]figshare.Collection, error) {
	return []figshare.Collection{{ID: 4412, Title: "Clean surfaces", ArticlesCount: 2}}, nil
}

func (stubRemote) CreateCollection(context.Context, map[string]any) (int64, error) {
	return 4412, nil
}

func (stubRemote) AddCollectionArticles(context.Context, int64, []int64) error {
	return nil
}

type env struct {
	srv   *httptest.Server
	queue *stubQueue
	root  string
}

func newEnv(t *testing.T, authEnabled bool, token string) *env {
	t.Helper()
	root := t.TempDir()
	store, err := library.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := articleservice.NewService(store, library.NewCollection(), db,
		metadata.NewNormalizer(stubDirectory{}), stubRemote{}, logger, nil)

	queue := &stubQueue{}
	r := NewRouter(svc, queue, stubDirectory{}, authEnabled, token, nil, root)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, queue: queue, root: root}
}

func (e *env) writeData(t *testing.T, rel, content string) {
	t.Helper()
	abs := filepath.Join(e.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e *env) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return resp, raw
}

func (e *env) importFile(t *testing.T, rel string) string {
	t.Helper()
	resp, raw := e.do(t, http.MethodPost, "/articles/import", ImportRequest{Path: rel})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status = %d: %s", resp.StatusCode, raw)
	}
	var out ArticleResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	return out.Article.ID
}

func TestAuthMiddleware(t *testing.T) {
	e := newEnv(t, true, "secret")

	resp, _ := e.do(t, http.MethodGet, "/articles", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/articles", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("valid token: status = %d", resp2.StatusCode)
	}
}

func TestImportGetListDelete(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "scan_001.Z_flat", "vgap : -1.2\nsample : Au(111)\n")

	id := e.importFile(t, "scan_001.Z_flat")

	resp, raw := e.do(t, http.MethodGet, "/articles/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var a models.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatal(err)
	}
	if a.Kind != models.KindSTMTopo || a.Custom["sample"] != "Au(111)" {
		t.Errorf("article = %+v", a)
	}

	resp, raw = e.do(t, http.MethodGet, "/articles?status=local", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list ArticleListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || list.Articles[0].ID != id {
		t.Errorf("list = %+v", list)
	}

	// Importing the same file again conflicts.
	resp, _ = e.do(t, http.MethodPost, "/articles/import", ImportRequest{Path: "scan_001.Z_flat"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate import status = %d", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodDelete, "/articles/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/articles/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

func TestImportMissingFile(t *testing.T) {
	e := newEnv(t, false, "")
	resp, _ := e.do(t, http.MethodPost, "/articles/import", ImportRequest{Path: "ghost.txt"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestPatchSurfacesWarnings(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "notes.txt", "plain")
	id := e.importFile(t, "notes.txt")

	resp, raw := e.do(t, http.MethodPatch, "/articles/"+id, UpdateArticleRequest{
		Meta: models.Fields{"references": []string{"http://ok.org", "ftp://dropped.org"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d: %s", resp.StatusCode, raw)
	}
	var out ArticleResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Warnings) != 1 || out.Warnings[0].Field != "references" {
		t.Errorf("warnings = %+v", out.Warnings)
	}
}

func TestUploadPreviewAndQueue(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "scan_001.Z_flat", "vgap : -1.2\n")
	id := e.importFile(t, "scan_001.Z_flat")

	resp, raw := e.do(t, http.MethodGet, "/articles/"+id+"/upload-preview", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", resp.StatusCode)
	}
	var preview UploadPreviewResponse
	if err := json.Unmarshal(raw, &preview); err != nil {
		t.Fatal(err)
	}
	if preview.Payload["title"] != "scan_001.Z_flat" {
		t.Errorf("payload = %v", preview.Payload)
	}
	if _, ok := preview.Payload["status"]; ok {
		t.Error("status leaked into the upload payload")
	}

	resp, raw = e.do(t, http.MethodPost, "/articles/"+id+"/upload", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("queue status = %d: %s", resp.StatusCode, raw)
	}
	if len(e.queue.ids) != 1 || e.queue.ids[0] != id {
		t.Errorf("queued = %v", e.queue.ids)
	}

	resp, _ = e.do(t, http.MethodPost, "/articles/nope/upload", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id queue status = %d", resp.StatusCode)
	}
}

func TestRefreshWithoutRemoteCopyConflicts(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "notes.txt", "plain")
	id := e.importFile(t, "notes.txt")

	resp, _ := e.do(t, http.MethodPost, "/articles/"+id+"/refresh", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "scan_001.Z_flat", "sample : annealed gold\n")
	e.importFile(t, "scan_001.Z_flat")

	resp, raw := e.do(t, http.MethodGet, "/search?q=annealed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}
	var out struct {
		Results []index.SearchResult `json:"results"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 {
		t.Errorf("results = %+v", out.Results)
	}

	resp, _ = e.do(t, http.MethodGet, "/search", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing query status = %d", resp.StatusCode)
	}
}

func TestVocabEndpoints(t *testing.T) {
	e := newEnv(t, false, "")

	resp, raw := e.do(t, http.MethodGet, "/vocab/categories", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "Physics") {
		t.Errorf("categories: %d %s", resp.StatusCode, raw)
	}
	resp, raw = e.do(t, http.MethodGet, "/vocab/licenses", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "CC BY") {
		t.Errorf("licenses: %d %s", resp.StatusCode, raw)
	}
	resp, raw = e.do(t, http.MethodGet, "/projects", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "STM data") {
		t.Errorf("projects: %d %s", resp.StatusCode, raw)
	}
}

func (e *env) postThumbnail(t *testing.T, articleID, filename string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(fw, "png bytes")
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/articles/"+articleID+"/thumbnail", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp
}

func TestThumbnailUploadAndServe(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "scan_001.Z_flat", "vgap : -1.2\n")
	id := e.importFile(t, "scan_001.Z_flat")

	if resp := e.postThumbnail(t, id, "scan_001.png"); resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	// The filename lands on the article's sidecar metadata.
	resp, raw := e.do(t, http.MethodGet, "/articles/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var a models.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatal(err)
	}
	if a.Desktop.Thumb != "scan_001.png" {
		t.Errorf("thumb = %q", a.Desktop.Thumb)
	}

	getResp, raw := e.do(t, http.MethodGet, "/thumbnails/scan_001.png", nil)
	if getResp.StatusCode != http.StatusOK || string(raw) != "png bytes" {
		t.Errorf("serve: %d %q", getResp.StatusCode, raw)
	}

	// Traversal names are rejected.
	travResp, _ := e.do(t, http.MethodGet, "/thumbnails/..%2Fescape.png", nil)
	if travResp.StatusCode == http.StatusOK {
		t.Error("traversal filename served")
	}
}

func TestThumbnailUploadUnknownArticle(t *testing.T) {
	e := newEnv(t, false, "")
	if resp := e.postThumbnail(t, "nope", "scan_001.png"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCollectionEndpoints(t *testing.T) {
	e := newEnv(t, false, "")

	resp, raw := e.do(t, http.MethodGet, "/collections", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "Clean surfaces") {
		t.Errorf("list: %d %s", resp.StatusCode, raw)
	}

	resp, raw = e.do(t, http.MethodPost, "/collections", CreateCollectionRequest{
		Fields: models.Fields{"title": "Clean surfaces"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, raw)
	}
	var out CollectionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != 4412 {
		t.Errorf("id = %d", out.ID)
	}

	resp, _ = e.do(t, http.MethodPost, "/collections", CreateCollectionRequest{
		Fields: models.Fields{"description": "no title"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("create without title status = %d", resp.StatusCode)
	}
}

func TestAddCollectionArticlesRequiresRemoteCopy(t *testing.T) {
	e := newEnv(t, false, "")
	e.writeData(t, "notes.txt", "plain")
	id := e.importFile(t, "notes.txt")

	resp, _ := e.do(t, http.MethodPost, "/collections/4412/articles",
		CollectionArticlesRequest{IDs: []string{id}})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("local-only record status = %d, want 409", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodPost, "/collections/4412/articles",
		CollectionArticlesRequest{IDs: []string{"ghost"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown record status = %d, want 404", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodPost, "/collections/4412/articles",
		CollectionArticlesRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty ids status = %d, want 400", resp.StatusCode)
	}
}
