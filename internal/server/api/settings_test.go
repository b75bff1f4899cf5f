package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/handsignal/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSettingsHandler_List(t *testing.T) {
	s := newTestStore(t)
	h := NewSettingsHandler(s)

	rec := doRequest(h, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp listSettingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Settings == nil || len(resp.Settings) != 0 {
		t.Errorf("expected empty settings list, got %v", resp.Settings)
	}

	if err := s.Settings().Set(store.KeyLastMode, "voice"); err != nil {
		t.Fatalf("failed to set setting: %v", err)
	}
	rec = doRequest(h, http.MethodGet, "/api/settings", "")
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Settings) != 1 || resp.Settings[0].Key != store.KeyLastMode {
		t.Errorf("expected mode.last in list, got %v", resp.Settings)
	}

	rec = doRequest(h, http.MethodPost, "/api/settings", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestSettingsHandler_PutGetDelete(t *testing.T) {
	s := newTestStore(t)
	h := NewSettingsHandler(s)

	rec := doRequest(h, http.MethodGet, "/api/settings/serial.port", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d for missing setting, got %d", http.StatusNotFound, rec.Code)
	}

	rec = doRequest(h, http.MethodPut, "/api/settings/serial.port", `{"value":"/dev/ttyACM0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doRequest(h, http.MethodGet, "/api/settings/serial.port", "")
	var got store.Setting
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Value != "/dev/ttyACM0" {
		t.Errorf("expected /dev/ttyACM0, got %q", got.Value)
	}

	rec = doRequest(h, http.MethodDelete, "/api/settings/serial.port", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	rec = doRequest(h, http.MethodDelete, "/api/settings/serial.port", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d on second delete, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSettingsHandler_Validation(t *testing.T) {
	h := NewSettingsHandler(newTestStore(t))

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "camera device", path: "/api/settings/camera.device", body: `{"value":"1"}`, want: http.StatusOK},
		{name: "negative camera", path: "/api/settings/camera.device", body: `{"value":"-1"}`, want: http.StatusBadRequest},
		{name: "camera not a number", path: "/api/settings/camera.device", body: `{"value":"front"}`, want: http.StatusBadRequest},
		{name: "empty port", path: "/api/settings/serial.port", body: `{"value":"  "}`, want: http.StatusBadRequest},
		{name: "read-only key", path: "/api/settings/mode.last", body: `{"value":"fist"}`, want: http.StatusBadRequest},
		{name: "invalid json", path: "/api/settings/serial.port", body: `{value`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodPut, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSettingsHandler_PutRequiresJSON(t *testing.T) {
	s := newTestStore(t)
	h := NewSettingsHandler(s)

	req := httptest.NewRequest(http.MethodPut, "/api/settings/serial.port", bytes.NewBufferString(`{"value":"COM3"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status %d, got %d", http.StatusUnsupportedMediaType, rec.Code)
	}
	if _, err := s.Settings().Get(store.KeySerialPort); err == nil {
		t.Error("setting should not be stored")
	}
}
