package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/codyseavey/nextbet/internal/config"
	"github.com/codyseavey/nextbet/internal/database"
	"github.com/codyseavey/nextbet/internal/live"
	"github.com/codyseavey/nextbet/internal/models"
	"github.com/codyseavey/nextbet/internal/services"
	"github.com/codyseavey/nextbet/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, mutate func(cfg *config.Config)) *gin.Engine {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "nextbet.db"))
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	kv := database.NewKVStore(db)

	cfg := config.Default()
	cfg.Analysis.Delay = 0
	cfg.RateLimit.PerSecond = 1000
	cfg.RateLimit.Burst = 1000
	if mutate != nil {
		mutate(cfg)
	}

	st := store.New()
	images := services.NewImageStorageService(cfg.Uploads.ArchiveDir, cfg.Uploads.MaxBytes)
	ctrl := services.NewAppController(
		st,
		services.NewSimulatedAnalyzer(services.NewThumbnailService(), cfg.Analysis.Delay),
		images,
		services.NewSnapshotService(kv),
		services.NewKVSessionProvider(kv),
		services.NewCooldownTicker(st, 0),
	)
	hub := live.NewHub()
	ctrl.SetPublisher(hub)
	ctrl.Load()
	t.Cleanup(ctrl.Close)
	t.Cleanup(hub.Close)

	return SetupRouter(cfg, ctrl, images, hub)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func uploadJSON(t *testing.T, router http.Handler) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/upload", gin.H{
		"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t)),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/upload = %d %s", w.Code, w.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("nextbet_http_requests_total")) {
		t.Errorf("GET /metrics = %d, missing request counter", w.Code)
	}
}

func TestGetState_Defaults(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/api/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/state = %d", w.Code)
	}

	st := decode[services.StateView](t, w)
	if st.Screen != models.ScreenHome || st.Bankroll != 1000 || st.Mode != models.ModeNormal {
		t.Errorf("state = %+v", st.State)
	}
	if st.Goals.DailyTarget != 40 {
		t.Errorf("DailyTarget = %d, want 40", st.Goals.DailyTarget)
	}
	if st.User != nil {
		t.Errorf("User = %q before login", *st.User)
	}
	if st.CooldownDisplay != "0:00" {
		t.Errorf("CooldownDisplay = %q", st.CooldownDisplay)
	}
}

func TestNavigate(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantScreen models.Screen
	}{
		{name: "free screen", body: gin.H{"screen": "history"}, wantStatus: http.StatusOK, wantScreen: models.ScreenHistory},
		{name: "premium screen redirects", body: gin.H{"screen": "goals"}, wantStatus: http.StatusOK, wantScreen: models.ScreenPremium},
		{name: "unknown screen", body: gin.H{"screen": "casino"}, wantStatus: http.StatusBadRequest},
		{name: "missing screen", body: gin.H{}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPut, "/api/screen", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("PUT /api/screen = %d %s, want %d", w.Code, w.Body.String(), tt.wantStatus)
			}
			if tt.wantScreen != "" {
				got := decode[map[string]models.Screen](t, w)
				if got["screen"] != tt.wantScreen {
					t.Errorf("screen = %s, want %s", got["screen"], tt.wantScreen)
				}
			}
		})
	}
}

func TestUpdateBankroll(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTarget int
	}{
		{name: "string amount", body: `{"amount":"2500"}`, wantStatus: http.StatusOK, wantTarget: 100},
		{name: "number amount", body: `{"amount":500}`, wantStatus: http.StatusOK, wantTarget: 20},
		{name: "zero", body: `{"amount":"0"}`, wantStatus: http.StatusBadRequest},
		{name: "negative", body: `{"amount":-20}`, wantStatus: http.StatusBadRequest},
		{name: "text", body: `{"amount":"lots"}`, wantStatus: http.StatusBadRequest},
		{name: "missing", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, nil)
			req := httptest.NewRequest(http.MethodPut, "/api/bankroll", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("PUT /api/bankroll = %d %s, want %d", w.Code, w.Body.String(), tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[struct {
				Goals models.GoalProgress `json:"goals"`
			}](t, w)
			if got.Goals.DailyTarget != tt.wantTarget {
				t.Errorf("DailyTarget = %d, want %d", got.Goals.DailyTarget, tt.wantTarget)
			}
		})
	}
}

func TestModeRequiresPremium(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPut, "/api/mode", gin.H{"mode": "leveraged"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("PUT /api/mode without premium = %d, want 403", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/premium", gin.H{"premium": true})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /api/premium = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/mode", gin.H{"mode": "leveraged"})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /api/mode with premium = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPut, "/api/premium", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /api/premium without value = %d, want 400", w.Code)
	}
}

func TestAnalysisFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/api/analysis", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST /api/analysis without image = %d, want 400", w.Code)
	}

	uploadJSON(t, router)

	w = doJSON(t, router, http.MethodPost, "/api/analysis", gin.H{"question": "what are the odds?"})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/analysis = %d %s", w.Code, w.Body.String())
	}
	result := decode[models.AnalysisResult](t, w)
	if result.ID == "" || result.ImageThumbnail == "" || result.Question != "what are the odds?" {
		t.Errorf("result = %+v", result)
	}

	// Normal mode is now cooling down
	w = doJSON(t, router, http.MethodPost, "/api/analysis", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("POST /api/analysis during cooldown = %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/analysis/outcome", gin.H{"outcome": "maybe"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST outcome maybe = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/analysis/outcome", gin.H{"outcome": "win"})
	if w.Code != http.StatusOK {
		t.Fatalf("POST outcome = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/analysis/outcome", gin.H{"outcome": "loss"})
	if w.Code != http.StatusConflict {
		t.Errorf("second outcome = %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/history", nil)
	history := decode[[]map[string]any](t, w)
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
	if history[0]["id"] != result.ID || history[0]["outcome"] != "win" {
		t.Errorf("history[0] = %v", history[0])
	}
	if history[0]["relative_time"] != "0min ago" {
		t.Errorf("relative_time = %v", history[0]["relative_time"])
	}

	w = doJSON(t, router, http.MethodDelete, "/api/history/"+result.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE history entry = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/history", nil)
	if history := decode[[]map[string]any](t, w); len(history) != 0 {
		t.Errorf("history len = %d after delete", len(history))
	}
}

func TestUpload(t *testing.T) {
	router := newTestRouter(t, func(cfg *config.Config) {
		cfg.Uploads.ArchiveDir = filepath.Join(t.TempDir(), "uploads")
		cfg.Uploads.MaxBytes = 64 << 10
	})

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", "grid.png")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(pngBytes(t))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("POST /api/upload = %d %s", w.Code, w.Body.String())
		}
		upload := decode[services.UploadedImage](t, w)
		if upload.MIMEType != "image/png" || upload.ArchivedAs == "" {
			t.Errorf("upload = %+v", upload)
		}

		w = doJSON(t, router, http.MethodGet, "/uploads/"+upload.ArchivedAs, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET archived upload = %d", w.Code)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/upload", gin.H{
			"image": base64.StdEncoding.EncodeToString([]byte("just some text")),
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST /api/upload text = %d, want 400", w.Code)
		}
	})

	t.Run("too large", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/upload", gin.H{
			"image": base64.StdEncoding.EncodeToString(make([]byte, 65<<10)),
		})
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("POST /api/upload oversize = %d, want 413", w.Code)
		}
	})

	t.Run("clear", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/api/upload", nil)
		if w.Code != http.StatusNoContent {
			t.Errorf("DELETE /api/upload = %d", w.Code)
		}
		st := decode[services.StateView](t, doJSON(t, router, http.MethodGet, "/api/state", nil))
		if st.UploadedImage != nil {
			t.Error("uploaded image still set")
		}
	})
}

func TestGoals(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/api/goals/progress", gin.H{"amount": 30})
	if w.Code != http.StatusOK {
		t.Fatalf("POST progress = %d %s", w.Code, w.Body.String())
	}
	goals := decode[models.GoalProgress](t, w)
	if goals.Progress != 30 || goals.ProgressPercent != 75 {
		t.Errorf("goals = %+v, want 30 at 75%%", goals)
	}

	w = doJSON(t, router, http.MethodPost, "/api/goals/progress", gin.H{"amount": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative progress = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/goals/reset", nil)
	goals = decode[models.GoalProgress](t, w)
	if goals.Progress != 0 || goals.DailyTarget != 40 {
		t.Errorf("after reset = %+v", goals)
	}

	w = doJSON(t, router, http.MethodGet, "/api/goals", nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/goals = %d", w.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	type session struct {
		Authenticated bool    `json:"authenticated"`
		User          *string `json:"user"`
	}

	if s := decode[session](t, doJSON(t, router, http.MethodGet, "/api/auth/session", nil)); s.Authenticated {
		t.Fatal("authenticated before login")
	}

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Ana", "email": "ana@example.com", "password": "12345", "confirm_password": "12345",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("register with short password = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Ana", "email": "ana@example.com", "password": "123456", "confirm_password": "123456",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", w.Code, w.Body.String())
	}

	s := decode[session](t, doJSON(t, router, http.MethodGet, "/api/auth/session", nil))
	if !s.Authenticated || s.User == nil || *s.User != "ana@example.com" {
		t.Errorf("session = %+v", s)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/auth/logout", nil); w.Code != http.StatusNoContent {
		t.Errorf("logout = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/demo", nil)
	if s := decode[session](t, w); s.User == nil || *s.User != services.DemoUser {
		t.Errorf("demo session = %+v", s)
	}

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{"password": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("login without email = %d, want 400", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimit.PerSecond = 0.001
		cfg.RateLimit.Burst = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodDelete, "/api/upload", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("unlimited route = %d", w.Code)
		}
		codes = append(codes, doJSON(t, router, http.MethodPost, "/api/analysis", nil).Code)
	}

	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third analysis request = %d, want 429 (codes %v)", codes[2], codes)
	}
}

func TestLiveFeed(t *testing.T) {
	router := newTestRouter(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/live", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// Changes are pushed as they happen; earlier frames may replay older state
	body := strings.NewReader(`{"amount":"3000"}`)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/bankroll", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/bankroll error = %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg struct {
			Type    string             `json:"type"`
			Payload services.StateView `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Type == "state" && msg.Payload.Bankroll == 3000 {
			return
		}
	}
}

func TestLiveFeed_RejectsForeignOrigin(t *testing.T) {
	router := newTestRouter(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/live", header)
	if err == nil {
		t.Fatal("Dial() succeeded from a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v, want 403", resp)
	}
}
