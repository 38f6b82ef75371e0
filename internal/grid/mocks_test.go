package grid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
)

// MockRepository is an in-memory Repository for tests.
type MockRepository struct {
	mu      sync.Mutex
	bridges map[string]Bridge

	// Error injection
	createErr error
	listErr   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{bridges: make(map[string]Bridge)}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Bridge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bridges[id]
	if !ok {
		return nil, ErrUnknownBridge
	}
	return &b, nil
}

func (m *MockRepository) GetByAddress(_ context.Context, address string) (*Bridge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bridges {
		if b.Address == address {
			bridge := b
			return &bridge, nil
		}
	}
	return nil, ErrUnknownBridge
}

func (m *MockRepository) List(_ context.Context) ([]Bridge, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Bridge, 0, len(m.bridges))
	for _, b := range m.bridges {
		out = append(out, b)
	}
	return out, nil
}

func (m *MockRepository) Create(_ context.Context, bridge *Bridge) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bridges {
		if b.Address == bridge.Address {
			return ErrDuplicateBridge
		}
	}
	m.bridges[bridge.ID] = *bridge
	return nil
}

func (m *MockRepository) UpdateStatus(_ context.Context, id string, status BridgeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bridges[id]
	if !ok {
		return ErrUnknownBridge
	}
	b.Status = status
	m.bridges[id] = b
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bridges[id]; !ok {
		return ErrUnknownBridge
	}
	delete(m.bridges, id)
	return nil
}

// fakeBridge is the scripted state of one bridge behind fakeClient.
type fakeBridge struct {
	config *hue.BridgeConfig
	lights map[string]hue.Light
	groups map[string]hue.Group

	// latency delays every call to this bridge.
	latency time.Duration

	// unreachable makes every call fail with a transport error.
	unreachable bool

	// rejectLamps maps lamp ids to bridge error codes.
	rejectLamps map[string]int
}

// fakeClient is a scripted BridgeClient keyed by bridge address.
type fakeClient struct {
	mu      sync.Mutex
	bridges map[string]*fakeBridge

	// setCalls counts SetLightState calls per address.
	setCalls map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		bridges:  make(map[string]*fakeBridge),
		setCalls: make(map[string]int),
	}
}

func (f *fakeClient) addBridge(address string, fb *fakeBridge) {
	if fb.config == nil {
		fb.config = &hue.BridgeConfig{Name: "Philips hue", APIVersion: "1.67.0", ModelID: "BSB002"}
	}
	if fb.lights == nil {
		fb.lights = make(map[string]hue.Light)
	}
	if fb.groups == nil {
		fb.groups = make(map[string]hue.Group)
	}
	f.mu.Lock()
	f.bridges[address] = fb
	f.mu.Unlock()
}

func (f *fakeClient) bridge(address string) (*fakeBridge, error) {
	f.mu.Lock()
	fb, ok := f.bridges[address]
	f.mu.Unlock()
	if !ok || fb.unreachable {
		return nil, &hue.TransportError{Op: "dial " + address, Err: errors.New("connection refused")}
	}
	return fb, nil
}

func (f *fakeClient) wait(ctx context.Context, fb *fakeBridge) error {
	if fb.latency == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return &hue.TransportError{Op: "waiting", Err: ctx.Err()}
	case <-time.After(fb.latency):
		return nil
	}
}

func (f *fakeClient) Probe(ctx context.Context, address string) (*hue.BridgeConfig, error) {
	fb, err := f.bridge(address)
	if err != nil {
		return nil, err
	}
	if err := f.wait(ctx, fb); err != nil {
		return nil, err
	}
	return fb.config, nil
}

func (f *fakeClient) GetLights(ctx context.Context, address, _ string) (map[string]hue.Light, error) {
	fb, err := f.bridge(address)
	if err != nil {
		return nil, err
	}
	if err := f.wait(ctx, fb); err != nil {
		return nil, err
	}
	out := make(map[string]hue.Light, len(fb.lights))
	for id, l := range fb.lights {
		out[id] = l
	}
	return out, nil
}

func (f *fakeClient) GetGroups(ctx context.Context, address, _ string) (map[string]hue.Group, error) {
	fb, err := f.bridge(address)
	if err != nil {
		return nil, err
	}
	if err := f.wait(ctx, fb); err != nil {
		return nil, err
	}
	out := make(map[string]hue.Group, len(fb.groups))
	for id, g := range fb.groups {
		out[id] = g
	}
	return out, nil
}

func (f *fakeClient) SetLightState(ctx context.Context, address, _, lightID string, _ hue.StateChange) error {
	f.mu.Lock()
	f.setCalls[address]++
	f.mu.Unlock()

	fb, err := f.bridge(address)
	if err != nil {
		return err
	}
	if err := f.wait(ctx, fb); err != nil {
		return err
	}
	if code, rejected := fb.rejectLamps[lightID]; rejected {
		return &hue.APIError{Type: code, Address: "/lights/" + lightID, Description: "resource not available"}
	}
	if _, ok := fb.lights[lightID]; !ok {
		return &hue.APIError{Type: hue.CodeResourceUnavailable, Address: "/lights/" + lightID, Description: "resource not available"}
	}
	return nil
}

func (f *fakeClient) SetGroupAction(ctx context.Context, address, _, groupID string, _ hue.StateChange) error {
	fb, err := f.bridge(address)
	if err != nil {
		return err
	}
	if err := f.wait(ctx, fb); err != nil {
		return err
	}
	if groupID == "0" {
		return nil
	}
	if _, ok := fb.groups[groupID]; !ok {
		return &hue.APIError{Type: hue.CodeResourceUnavailable, Address: "/groups/" + groupID, Description: "resource not available"}
	}
	return nil
}
