package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/internhub/internhub/pkg/activity"
	"github.com/internhub/internhub/pkg/cache"
	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/models"
	"github.com/internhub/internhub/pkg/service"
	"github.com/internhub/internhub/pkg/store"
)

type flakyStore struct {
	store.Store
	fail bool
}

func (f *flakyStore) ActivePositions(ctx context.Context) ([]models.PositionListing, error) {
	if f.fail {
		return nil, errors.New("connection reset")
	}
	return f.Store.ActivePositions(ctx)
}

func setupServer(t *testing.T) (*Server, *flakyStore) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	act, err := activity.New(models.ActivityConfig{Enabled: true, DBPath: filepath.Join(dir, "activity.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { act.Close() })

	fs := &flakyStore{Store: st}
	svc := service.New(fs, cache.New(time.Minute), service.WithActivity(act))
	return New(&config.Config{Listen: ":0"}, svc, nil), fs
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func createStartup(t *testing.T, srv *Server, owner string) models.Startup {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/startups",
		`{"owner_id":"`+owner+`","name":"Acme","website":"https://acme.example"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[models.Startup](t, w)
}

func createPosition(t *testing.T, srv *Server, startupID, title string) models.Position {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/positions",
		`{"startup_id":"`+startupID+`","title":"`+title+`","deadline":"2030-01-01T00:00:00Z"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[models.Position](t, w)
}

func saveStudent(t *testing.T, srv *Server, id string) {
	t.Helper()
	w := do(t, srv, http.MethodPut, "/api/students/"+id+"/profile",
		`{"full_name":"Student","bio":"CS undergrad","skills":["go"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestActivePositionsReflectCreate(t *testing.T) {
	srv, _ := setupServer(t)
	st := createStartup(t, srv, "owner-1")
	createPosition(t, srv, st.ID, "Backend intern")

	w := do(t, srv, http.MethodGet, "/api/positions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode[[]models.PositionListing](t, w); len(got) != 1 {
		t.Fatalf("expected 1 position, got %d", len(got))
	}

	createPosition(t, srv, st.ID, "Frontend intern")

	w = do(t, srv, http.MethodGet, "/api/positions", "")
	got := decode[[]models.PositionListing](t, w)
	if len(got) != 2 {
		t.Fatalf("expected 2 positions after create, got %d", len(got))
	}
	if got[0].StartupName != "Acme" {
		t.Errorf("expected startup name Acme, got %q", got[0].StartupName)
	}
}

func TestReadFailureIsBadGateway(t *testing.T) {
	srv, fs := setupServer(t)
	fs.fail = true

	w := do(t, srv, http.MethodGet, "/api/positions", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != http.StatusBadGateway {
		t.Errorf("expected error code 502, got %d", body.Error.Code)
	}

	fs.fail = false
	w = do(t, srv, http.MethodGet, "/api/positions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected recovery after failure, got %d", w.Code)
	}
}

func TestApplyFlow(t *testing.T) {
	srv, _ := setupServer(t)
	st := createStartup(t, srv, "owner-1")
	pos := createPosition(t, srv, st.ID, "Data intern")
	path := "/api/positions/" + pos.ID + "/applications"

	w := do(t, srv, http.MethodPost, path, `{"student_id":"stu-1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 without a profile, got %d: %s", w.Code, w.Body.String())
	}

	saveStudent(t, srv, "stu-1")
	w = do(t, srv, http.MethodPost, path, `{"student_id":"stu-1","cover_letter":"Keen on pipelines."}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	app := decode[models.Application](t, w)
	if app.Status != models.ApplicationPending {
		t.Errorf("expected pending, got %s", app.Status)
	}
	if app.CoverLetter != "Keen on pipelines." {
		t.Errorf("expected cover letter, got %q", app.CoverLetter)
	}

	w = do(t, srv, http.MethodPost, path, `{"student_id":"stu-1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate apply, got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/owners/owner-1/applications", "")
	owned := decode[[]models.StartupApplication](t, w)
	if len(owned) != 1 {
		t.Fatalf("expected 1 startup application, got %d", len(owned))
	}
	if owned[0].CoverLetter != "Keen on pipelines." {
		t.Errorf("expected cover letter on owner view, got %q", owned[0].CoverLetter)
	}

	w = do(t, srv, http.MethodPatch, "/api/applications/"+app.ID, `{"status":"accepted"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodGet, "/api/students/stu-1/applications", "")
	got := decode[[]models.StudentApplication](t, w)
	if len(got) != 1 || got[0].Status != models.ApplicationAccepted {
		t.Fatalf("expected accepted application, got %+v", got)
	}

	w = do(t, srv, http.MethodPatch, "/api/applications/"+app.ID, `{"status":"maybe"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", w.Code)
	}
}

func TestClosedPositionRejectsApplications(t *testing.T) {
	srv, _ := setupServer(t)
	st := createStartup(t, srv, "owner-1")
	pos := createPosition(t, srv, st.ID, "Ops intern")

	w := do(t, srv, http.MethodPatch, "/api/positions/"+pos.ID, `{"status":"closed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodPost, "/api/positions/"+pos.ID+"/applications", `{"student_id":"stu-1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/positions", "")
	if got := decode[[]models.PositionListing](t, w); len(got) != 0 {
		t.Errorf("expected no active positions, got %d", len(got))
	}
}

func TestNotFoundAndBadRequest(t *testing.T) {
	srv, _ := setupServer(t)

	w := do(t, srv, http.MethodPost, "/api/positions/missing/applications", `{"student_id":"stu-1"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/startups", `{"name":"NoOwner"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/startups", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/profiles/u1?type=robot", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown profile type, got %d", w.Code)
	}

	w = do(t, srv, http.MethodDelete, "/api/positions", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestStudentProfile(t *testing.T) {
	srv, _ := setupServer(t)

	w := do(t, srv, http.MethodGet, "/api/profiles/stu-1?type=student", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", w.Code)
	}

	body := `{"full_name":"Ada","bio":"systems","university_id":"U1","graduation_year":"2027",` +
		`"major":"CS","campus":"North","skills":["go"]}`
	w = do(t, srv, http.MethodPut, "/api/students/stu-1/profile", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[profileResponse](t, w)
	if !resp.Complete {
		t.Error("expected complete profile")
	}
	if resp.Profile.ID != "stu-1" {
		t.Errorf("expected id from path, got %q", resp.Profile.ID)
	}

	w = do(t, srv, http.MethodGet, "/api/profiles/stu-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after save, got %d", w.Code)
	}
	got := decode[models.StudentProfile](t, w)
	if got.FullName != "Ada" {
		t.Errorf("expected Ada, got %q", got.FullName)
	}
}

func TestStartupActivity(t *testing.T) {
	srv, _ := setupServer(t)
	st := createStartup(t, srv, "owner-1")
	createPosition(t, srv, st.ID, "Design intern")

	w := do(t, srv, http.MethodGet, "/api/startups/"+st.ID+"/activity?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	events := decode[[]models.ActivityEvent](t, w)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	kinds := map[models.ActivityKind]bool{}
	for _, ev := range events {
		kinds[ev.Kind] = true
	}
	if !kinds[models.ActivityStartupRegistered] || !kinds[models.ActivityPositionCreated] {
		t.Errorf("unexpected event kinds: %v", kinds)
	}
}

func TestCacheAdmin(t *testing.T) {
	srv, _ := setupServer(t)
	st := createStartup(t, srv, "owner-1")

	do(t, srv, http.MethodGet, "/api/positions", "")
	do(t, srv, http.MethodGet, "/api/positions", "")
	do(t, srv, http.MethodGet, "/api/startups", "")
	do(t, srv, http.MethodGet, "/api/startups/"+st.ID+"/positions", "")

	w := do(t, srv, http.MethodGet, "/api/cache/stats", "")
	stats := decode[models.CacheStats](t, w)
	if stats.Entries != 3 {
		t.Errorf("expected 3 entries, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}

	w = do(t, srv, http.MethodPost, "/api/cache/invalidate", `{"prefix":"startup_positions_"}`)
	if got := decode[InvalidateResponse](t, w); got.Removed != 1 {
		t.Errorf("expected 1 removed by prefix, got %d", got.Removed)
	}

	w = do(t, srv, http.MethodPost, "/api/cache/invalidate", `{"key":"active_positions"}`)
	if got := decode[InvalidateResponse](t, w); got.Removed != 1 {
		t.Errorf("expected 1 removed by key, got %d", got.Removed)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cache/invalidate", strings.NewReader(""))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty chunked body, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[InvalidateResponse](t, w); got.Removed != 1 {
		t.Errorf("expected 1 removed by clear, got %d", got.Removed)
	}

	w = do(t, srv, http.MethodGet, "/api/cache/stats", "")
	if stats := decode[models.CacheStats](t, w); stats.Entries != 0 {
		t.Errorf("expected empty cache, got %d entries", stats.Entries)
	}
}

func TestErrorBodyIsValidJSON(t *testing.T) {
	srv, _ := setupServer(t)
	st := createStartup(t, srv, "owner-1")
	pos := createPosition(t, srv, st.ID, "Ops intern")
	saveStudent(t, srv, "stu-1")
	w := do(t, srv, http.MethodPost, "/api/positions/"+pos.ID+"/applications", `{"student_id":"stu-1"}`)
	app := decode[models.Application](t, w)

	w = do(t, srv, http.MethodPatch, "/api/applications/"+app.ID, `{"status":"\u0001maybe"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%q)", err, w.Body.String())
	}
	if !strings.Contains(body.Error.Message, `\x01maybe`) {
		t.Errorf("expected status echoed in message, got %q", body.Error.Message)
	}
}

func TestWriteJSONErrorEscapesControlCharacters(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, http.StatusBadRequest, "bad value \x01\u00e9")

	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%q)", err, w.Body.String())
	}
	if body.Error.Message != "bad value \x01\u00e9" || body.Error.Code != http.StatusBadRequest {
		t.Errorf("unexpected error body: %+v", body.Error)
	}
}

func TestFreshQueryBypassesCache(t *testing.T) {
	srv, _ := setupServer(t)
	do(t, srv, http.MethodGet, "/api/startups", "")
	do(t, srv, http.MethodGet, "/api/startups?fresh=true", "")

	w := do(t, srv, http.MethodGet, "/api/cache/stats", "")
	stats := decode[models.CacheStats](t, w)
	if stats.Misses != 2 || stats.Hits != 0 {
		t.Errorf("expected 2 misses and 0 hits, got %+v", stats)
	}
}
