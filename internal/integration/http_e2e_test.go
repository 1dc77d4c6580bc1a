//go:build integration

package integration

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	httpserver "destiny_blue/internal/adapters/http_server"
	"destiny_blue/internal/adapters/openai"
	"destiny_blue/internal/adapters/ownerrez"
	redisad "destiny_blue/internal/adapters/redis"
	"destiny_blue/internal/app"
	"destiny_blue/internal/shared"
	"destiny_blue/internal/stay"
	mysqlrepo "destiny_blue/internal/storage/mysql"
)

// ---------- helpers ----------

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// fakeOwnerRez has Unit 707 booked for the first week of March.
func fakeOwnerRez(t *testing.T) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{}
		if r.URL.Query().Get("property_ids") == "293722" {
			items = append(items, map[string]any{"id": 1, "property_id": 293722, "arrival": "2026-03-01", "departure": "2026-03-08", "status": "active"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func fakeOpenAI(t *testing.T) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Unit 1006 is open for those dates!"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// ---------- the test ----------
func TestHTTP_EndToEnd_ChatThenTranscript(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=destiny",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "destiny")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	cache := redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	or, err := ownerrez.New(fakeOwnerRez(t).URL, "u", "tok", 100)
	if err != nil {
		t.Fatalf("ownerrez: %v", err)
	}
	llm, err := openai.New("sk-test", fakeOpenAI(t).URL+"/v1", "", 0, 0)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	repo := mysqlrepo.New(db)

	now := func() time.Time { return time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC) }
	ex := stay.New(stay.Config{Now: now, Units: shared.DefaultUnits, DefaultUnit: "Unit 707"})
	chat := app.NewChatService(ex, app.ChatDeps{Reservations: or, Completer: llm, Cache: cache, Transcripts: repo},
		app.ChatConfig{BookingBaseURL: "https://book.test/", Now: now})

	s := httpserver.New()
	s.MountHandlers(&httpserver.Handlers{Chat: chat, Turns: app.NewTranscriptService(repo, cache, time.Minute)})
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()

	body := `{"session_id":"e2e-1","messages":[{"role":"user","content":"March 2-5 for 2 adults and 2 kids?"}]}`
	res, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	var reply app.ChatReply
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()
	if reply.Reply != "Unit 1006 is open for those dates!" || reply.Stay == nil || len(reply.Stay.Units) != 2 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Stay.Units[0].Status != "booked" || reply.Stay.Units[1].Status != "available" {
		t.Fatalf("unexpected availability: %+v", reply.Stay.Units)
	}

	// Hit the transcript endpoint
	res, err = http.Get(ts.URL + "/v1/sessions/e2e-1/turns")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var page struct {
		Items []struct {
			GuestMessage string  `json:"guest_message"`
			Arrival      *string `json:"arrival"`
			Children     *int    `json:"children"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Arrival == nil || *page.Items[0].Arrival != "2026-03-02" ||
		page.Items[0].Children == nil || *page.Items[0].Children != 2 {
		t.Fatalf("unexpected transcript: %+v", page)
	}
}
