package hue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testServer starts an httptest server and returns it with the host:port
// address the client dials.
func testServer(t *testing.T, handler http.Handler) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, strings.TrimPrefix(srv.URL, "http://")
}

func TestClient_Probe(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/config" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"name":"Philips hue","apiversion":"1.67.0","modelid":"BSB002"}`)) //nolint:errcheck
	}))

	client := NewClient(ClientOptions{})
	cfg, err := client.Probe(context.Background(), addr)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if cfg.Name != "Philips hue" {
		t.Errorf("Name = %q, want %q", cfg.Name, "Philips hue")
	}
	if cfg.APIVersion != "1.67.0" {
		t.Errorf("APIVersion = %q, want %q", cfg.APIVersion, "1.67.0")
	}
}

func TestClient_Probe_NotABridge(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"vendor":"some-camera"}`)) //nolint:errcheck
	}))

	client := NewClient(ClientOptions{})
	_, err := client.Probe(context.Background(), addr)
	if !errors.Is(err, ErrNotHueBridge) {
		t.Errorf("Probe() error = %v, want ErrNotHueBridge", err)
	}
}

func TestClient_Probe_Unreachable(t *testing.T) {
	client := NewClient(ClientOptions{Timeout: 500 * time.Millisecond})

	// Reserved TEST-NET-1 address, nothing listens there.
	_, err := client.Probe(context.Background(), "192.0.2.1:30000")
	if err == nil {
		t.Fatal("Probe() expected error for unreachable address")
	}
	if !IsTransient(err) {
		t.Errorf("Probe() error = %v, want transport error", err)
	}
}

func TestClient_GetLights(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token123/lights" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		//nolint:errcheck
		w.Write([]byte(`{
			"1": {"state":{"on":true,"bri":200,"reachable":true},"name":"Desk","type":"Extended color light"},
			"2": {"state":{"on":false,"bri":0,"reachable":false},"name":"Shelf","type":"Dimmable light"}
		}`))
	}))

	client := NewClient(ClientOptions{})
	lights, err := client.GetLights(context.Background(), addr, "token123")
	if err != nil {
		t.Fatalf("GetLights() error = %v", err)
	}

	if len(lights) != 2 {
		t.Fatalf("GetLights() returned %d lights, want 2", len(lights))
	}
	if !lights["1"].State.On || lights["1"].State.Brightness != 200 {
		t.Errorf("light 1 state = %+v, want on with bri 200", lights["1"].State)
	}
	if lights["2"].Name != "Shelf" {
		t.Errorf("light 2 name = %q, want %q", lights["2"].Name, "Shelf")
	}
}

func TestClient_GetLights_Unauthorized(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"error":{"type":1,"address":"/lights","description":"unauthorized user"}}]`)) //nolint:errcheck
	}))

	client := NewClient(ClientOptions{})
	_, err := client.GetLights(context.Background(), addr, "bogus")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetLights() error = %v, want *APIError", err)
	}
	if !apiErr.IsUnauthorized() {
		t.Errorf("error type = %d, want %d", apiErr.Type, CodeUnauthorized)
	}
	if IsTransient(err) {
		t.Error("bridge rejection should not be transient")
	}
}

func TestClient_SetLightState(t *testing.T) {
	var gotBody string
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %q, want PUT", r.Method)
		}
		if r.URL.Path != "/api/token123/lights/1/state" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf) //nolint:errcheck
		gotBody = string(buf)
		w.Write([]byte(`[{"success":{"/lights/1/state/on":true}}]`)) //nolint:errcheck
	}))

	on := true
	bri := uint8(128)
	client := NewClient(ClientOptions{})
	err := client.SetLightState(context.Background(), addr, "token123", "1", StateChange{
		On:         &on,
		Brightness: &bri,
	})
	if err != nil {
		t.Fatalf("SetLightState() error = %v", err)
	}

	if !strings.Contains(gotBody, `"on":true`) || !strings.Contains(gotBody, `"bri":128`) {
		t.Errorf("request body = %q, want on and bri fields", gotBody)
	}
	if strings.Contains(gotBody, "hue") || strings.Contains(gotBody, "xy") {
		t.Errorf("request body = %q, unset fields should be omitted", gotBody)
	}
}

func TestClient_SetLightState_UnknownLamp(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"error":{"type":3,"address":"/lights/99","description":"resource, /lights/99, not available"}}]`)) //nolint:errcheck
	}))

	on := true
	client := NewClient(ClientOptions{})
	err := client.SetLightState(context.Background(), addr, "token123", "99", StateChange{On: &on})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("SetLightState() error = %v, want *APIError", err)
	}
	if apiErr.Type != CodeResourceUnavailable {
		t.Errorf("error type = %d, want %d", apiErr.Type, CodeResourceUnavailable)
	}
}

func TestClient_SetGroupAction(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token123/groups/0/action" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"success":{"/groups/0/action/on":false}}]`)) //nolint:errcheck
	}))

	off := false
	client := NewClient(ClientOptions{})
	if err := client.SetGroupAction(context.Background(), addr, "token123", "0", StateChange{On: &off}); err != nil {
		t.Fatalf("SetGroupAction() error = %v", err)
	}
}

func TestClient_CreateUser(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[{"success":{"username":"83b7780291a6ceffbe0bd049104df"}}]`)) //nolint:errcheck
	}))

	client := NewClient(ClientOptions{})
	username, err := client.CreateUser(context.Background(), addr, "lampgrid#core")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if username != "83b7780291a6ceffbe0bd049104df" {
		t.Errorf("username = %q", username)
	}
}

func TestClient_CreateUser_LinkButton(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"error":{"type":101,"address":"","description":"link button not pressed"}}]`)) //nolint:errcheck
	}))

	client := NewClient(ClientOptions{})
	_, err := client.CreateUser(context.Background(), addr, "lampgrid#core")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CreateUser() error = %v, want *APIError", err)
	}
	if !apiErr.IsLinkButton() {
		t.Errorf("error type = %d, want %d", apiErr.Type, CodeLinkButtonNotPressed)
	}
}

func TestClient_GarbageResponse(t *testing.T) {
	_, addr := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`)) //nolint:errcheck
	}))

	client := NewClient(ClientOptions{})
	_, err := client.GetLights(context.Background(), addr, "token123")
	if !IsTransient(err) {
		t.Errorf("GetLights() error = %v, want transport error for garbage body", err)
	}
}
