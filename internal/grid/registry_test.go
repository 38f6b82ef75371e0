package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/lampgrid/lampgrid-core/internal/infrastructure/logging"
)

func newTestRegistry(t *testing.T, client BridgeClient) (*Registry, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	registry, err := NewRegistry(repo, client, logging.Default())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return registry, repo
}

func TestRegistry_Register(t *testing.T) {
	client := newFakeClient()
	client.addBridge("10.0.0.5:80", &fakeBridge{})
	registry, _ := newTestRegistry(t, client)

	bridge, err := registry.Register(context.Background(), "10.0.0.5:80", "abc")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if bridge.ID == "" {
		t.Error("registered bridge should have an id")
	}
	if bridge.Status != BridgeStatusReachable {
		t.Errorf("status = %q, want reachable", bridge.Status)
	}
	if bridge.Name != "Philips hue" {
		t.Errorf("name = %q, want probe-reported name", bridge.Name)
	}

	// Immediately visible in List
	list := registry.List()
	if len(list) != 1 || list[0].ID != bridge.ID {
		t.Errorf("List() = %v, want the registered bridge", list)
	}

	// And in Get
	got, err := registry.Get(bridge.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Address != "10.0.0.5:80" {
		t.Errorf("Get() address = %q", got.Address)
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	client := newFakeClient()
	client.addBridge("10.0.0.5:80", &fakeBridge{})
	registry, _ := newTestRegistry(t, client)

	if _, err := registry.Register(context.Background(), "10.0.0.5:80", "abc"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := registry.Register(context.Background(), "10.0.0.5:80", "xyz")
	if !errors.Is(err, ErrDuplicateBridge) {
		t.Errorf("second Register() error = %v, want ErrDuplicateBridge", err)
	}
}

func TestRegistry_Register_Unreachable(t *testing.T) {
	client := newFakeClient()
	client.addBridge("10.0.0.5:80", &fakeBridge{unreachable: true})
	registry, _ := newTestRegistry(t, client)

	_, err := registry.Register(context.Background(), "10.0.0.5:80", "abc")
	if !errors.Is(err, ErrUnreachableBridge) {
		t.Errorf("Register() error = %v, want ErrUnreachableBridge", err)
	}

	if len(registry.List()) != 0 {
		t.Error("failed registration must not appear in List()")
	}
}

func TestRegistry_Deregister_Idempotent(t *testing.T) {
	client := newFakeClient()
	client.addBridge("10.0.0.5:80", &fakeBridge{})
	registry, _ := newTestRegistry(t, client)

	bridge, err := registry.Register(context.Background(), "10.0.0.5:80", "abc")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.Deregister(context.Background(), bridge.ID); err != nil {
		t.Fatalf("Deregister() error = %v", err)
	}
	if len(registry.List()) != 0 {
		t.Error("deregistered bridge still in List()")
	}

	// Removing an unknown id is a no-op, not an error
	if err := registry.Deregister(context.Background(), bridge.ID); err != nil {
		t.Errorf("second Deregister() error = %v, want nil", err)
	}
	if err := registry.Deregister(context.Background(), "never-existed"); err != nil {
		t.Errorf("Deregister(unknown) error = %v, want nil", err)
	}
}

func TestRegistry_Load(t *testing.T) {
	client := newFakeClient()
	repo := NewMockRepository()
	repo.bridges["b1"] = Bridge{ID: "b1", Address: "10.0.0.5:80", Username: "abc", Status: BridgeStatusReachable}

	registry, err := NewRegistry(repo, client, logging.Default())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if err := registry.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := registry.Get("b1"); err != nil {
		t.Errorf("Get() after Load error = %v", err)
	}
}

func TestRegistry_Get_Unknown(t *testing.T) {
	registry, _ := newTestRegistry(t, newFakeClient())

	_, err := registry.Get("nope")
	if !errors.Is(err, ErrUnknownBridge) {
		t.Errorf("Get() error = %v, want ErrUnknownBridge", err)
	}
}

func TestRegistry_SetStatus(t *testing.T) {
	client := newFakeClient()
	client.addBridge("10.0.0.5:80", &fakeBridge{})
	registry, _ := newTestRegistry(t, client)

	bridge, err := registry.Register(context.Background(), "10.0.0.5:80", "abc")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.SetStatus(context.Background(), bridge.ID, BridgeStatusUnreachable); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	got, err := registry.Get(bridge.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != BridgeStatusUnreachable {
		t.Errorf("status = %q, want unreachable", got.Status)
	}
}
