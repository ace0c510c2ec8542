package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/barhop/internal/config"
	"github.com/dukerupert/barhop/internal/database"
	"github.com/dukerupert/barhop/internal/device"
	"github.com/dukerupert/barhop/internal/store"
)

func setupServer(t *testing.T, rateLimit int) (*httptest.Server, *Server) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now()
	as := store.NewActivityStore(db)
	if _, err := as.Create(context.Background(), store.ActivityParams{
		ID:           "crawl",
		Name:         "Pub Crawl",
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		CheckInLimit: 5,
	}); err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if _, err := as.AddLocation(context.Background(), "crawl", store.LocationParams{ID: "loc-a", Name: "Bar A"}); err != nil {
		t.Fatalf("add location: %v", err)
	}

	cfg := config.Config{
		Timezone:          time.UTC,
		CheckinRateLimit:  rateLimit,
		CheckinRateWindow: time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(db, cfg, logger)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts, s
}

func TestHealth(t *testing.T) {
	ts, _ := setupServer(t, 10)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("health = %d %s", resp.StatusCode, body)
	}
}

func TestDeviceCookieIssuedOnce(t *testing.T) {
	ts, _ := setupServer(t, 10)
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(ts.URL + "/activities/crawl")
	if err != nil {
		t.Fatalf("first visit: %v", err)
	}
	resp.Body.Close()

	var issued *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == device.CookieName {
			issued = c
		}
	}
	if issued == nil || issued.Value == "" {
		t.Fatal("first visit should issue a device cookie")
	}

	resp, err = client.Get(ts.URL + "/activities/crawl")
	if err != nil {
		t.Fatalf("second visit: %v", err)
	}
	resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == device.CookieName {
			t.Errorf("known device was issued a new cookie %q", c.Value)
		}
	}
}

func TestCheckinRoundTrip(t *testing.T) {
	ts, _ := setupServer(t, 10)
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(ts.URL + "/checkin_verify?activity_id=crawl&location_id=loc-a")
	if err != nil {
		t.Fatalf("get shell: %v", err)
	}
	resp.Body.Close()

	form := url.Values{"activity_id": {"crawl"}, "location_id": {"loc-a"}}
	resp, err = client.PostForm(ts.URL+"/partials/checkin_verify", form)
	if err != nil {
		t.Fatalf("post checkin: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "打卡成功！") {
		t.Fatalf("post body = %s", body)
	}

	resp, err = client.Get(ts.URL + "/activities/crawl")
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "已打卡: 1 / 5") || !strings.Contains(string(body), "Bar A - ") {
		t.Errorf("detail page did not reflect the check-in")
	}

	resp, err = client.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		`checkins_total{outcome="recorded"} 1`,
		`route="GET /activities/{activity_id}"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestCheckinRateLimited(t *testing.T) {
	ts, _ := setupServer(t, 2)
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(ts.URL + "/activities/crawl")
	if err != nil {
		t.Fatalf("first visit: %v", err)
	}
	resp.Body.Close()

	form := url.Values{"activity_id": {"crawl"}, "location_id": {"loc-a"}}
	var last *http.Response
	for i := 0; i < 3; i++ {
		resp, err := client.PostForm(ts.URL+"/partials/checkin_verify", form)
		if err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
		resp.Body.Close()
		last = resp
	}
	if last.StatusCode != http.StatusTooManyRequests {
		t.Errorf("third post status = %d, want 429", last.StatusCode)
	}
	if last.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestStaticAssets(t *testing.T) {
	ts, _ := setupServer(t, 10)

	resp, err := http.Get(ts.URL + "/static/app.js")
	if err != nil {
		t.Fatalf("get app.js: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("app.js status = %d, want 200", resp.StatusCode)
	}
}

func TestCheckinRateLimitedWithoutCookie(t *testing.T) {
	ts, _ := setupServer(t, 2)

	// No cookie jar: every request is issued a fresh device id, so the
	// limit has to follow the client address.
	form := url.Values{"activity_id": {"crawl"}, "location_id": {"loc-a"}}
	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := http.PostForm(ts.URL+"/partials/checkin_verify", form)
		if err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want third to be 429", codes)
	}
}

func TestCheckinAPIIgnoresDeviceOverride(t *testing.T) {
	ts, _ := setupServer(t, 10)
	jar, _ := cookiejar.New(nil)
	victim := &http.Client{Jar: jar}

	resp, err := victim.Get(ts.URL + "/activities/crawl")
	if err != nil {
		t.Fatalf("victim visit: %v", err)
	}
	resp.Body.Close()
	var victimID string
	for _, c := range resp.Cookies() {
		if c.Name == device.CookieName {
			victimID = c.Value
		}
	}
	if victimID == "" {
		t.Fatal("victim was not issued a device cookie")
	}

	resp, err = http.Post(ts.URL+"/api/activities/crawl/checkins?device_id="+victimID, "application/json", strings.NewReader(`{"location_id":"loc-a"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post status = %d, want 201 for the caller's own new device", resp.StatusCode)
	}

	resp, err = victim.Get(ts.URL + "/api/activities/crawl/checkins")
	if err != nil {
		t.Fatalf("victim list: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("victim checkins = %s, want []", body)
	}

	resp, err = http.Post(ts.URL+"/api/activities/crawl/checkins", "application/json", strings.NewReader(`{"location_id":"loc-a"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusInternalServerError {
		t.Error("cookie-less create must not fail with 500")
	}
}
