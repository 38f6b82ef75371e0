package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default client tuning constants.
const (
	// defaultRequestTimeout bounds a single HTTP call to a bridge.
	defaultRequestTimeout = 10 * time.Second

	// maxResponseBytes bounds how much of a bridge response is read.
	// Bridges return small JSON documents; anything larger is garbage.
	maxResponseBytes = 1 << 20
)

// Client speaks the bridge's native HTTP protocol. It is a stateless
// per-call helper: it holds no bridge state and owns no persistent data,
// so one Client is safely shared across goroutines and bridges.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	http *http.Client
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Timeout bounds each HTTP request. Zero means defaultRequestTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying HTTP client. Used in tests.
	// When set, Timeout is ignored.
	HTTPClient *http.Client
}

// NewClient creates a bridge protocol client.
func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient != nil {
		return &Client{http: opts.HTTPClient}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Probe checks that the target at address answers the bridge protocol.
// It uses the unauthenticated config endpoint, so it works against bridges
// the gateway has no username for yet.
//
// Returns:
//   - *BridgeConfig: Identity fields reported by the bridge
//   - error: *TransportError if unreachable, ErrNotHueBridge if the target
//     answers but is not a bridge
func (c *Client) Probe(ctx context.Context, address string) (*BridgeConfig, error) {
	var cfg BridgeConfig
	if err := c.get(ctx, address, "/api/config", &cfg); err != nil {
		return nil, err
	}
	if cfg.Name == "" || cfg.APIVersion == "" {
		return nil, ErrNotHueBridge
	}
	return &cfg, nil
}

// GetConfig retrieves the authenticated bridge configuration.
func (c *Client) GetConfig(ctx context.Context, address, username string) (*BridgeConfig, error) {
	var cfg BridgeConfig
	if err := c.get(ctx, address, "/api/"+username+"/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetLights retrieves all lamps known to the bridge, keyed by local lamp id.
func (c *Client) GetLights(ctx context.Context, address, username string) (map[string]Light, error) {
	lights := make(map[string]Light)
	if err := c.get(ctx, address, "/api/"+username+"/lights", &lights); err != nil {
		return nil, err
	}
	return lights, nil
}

// GetGroups retrieves all groups known to the bridge, keyed by local group id.
func (c *Client) GetGroups(ctx context.Context, address, username string) (map[string]Group, error) {
	groups := make(map[string]Group)
	if err := c.get(ctx, address, "/api/"+username+"/groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SetLightState applies a state change to one lamp.
//
// Returns nil when the bridge acknowledges every field; *APIError when the
// bridge rejects the request (unknown lamp, bad credential); *TransportError
// when the call never completed.
func (c *Client) SetLightState(ctx context.Context, address, username, lightID string, change StateChange) error {
	path := "/api/" + username + "/lights/" + lightID + "/state"
	return c.put(ctx, address, path, change)
}

// SetGroupAction applies a state change to a group. Group id "0" addresses
// every lamp on the bridge.
func (c *Client) SetGroupAction(ctx context.Context, address, username, groupID string, change StateChange) error {
	path := "/api/" + username + "/groups/" + groupID + "/action"
	return c.put(ctx, address, path, change)
}

// CreateUser performs the pairing handshake and returns the bridge-issued
// username. Until the physical link button on the bridge is pressed, the
// bridge answers with code 101 (surfaced as *APIError).
func (c *Client) CreateUser(ctx context.Context, address, devicetype string) (string, error) {
	body, err := json.Marshal(createUserRequest{Devicetype: devicetype})
	if err != nil {
		return "", fmt.Errorf("marshalling pairing request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, address, "/api", body)
	if err != nil {
		return "", err
	}

	items, err := decodeItems("create user", raw)
	if err != nil {
		return "", err
	}
	if err := firstError(items); err != nil {
		return "", err
	}

	for _, item := range items {
		if username, ok := item.Success["username"].(string); ok {
			return username, nil
		}
	}
	return "", ErrEmptyResponse
}

// get fetches a JSON document from the bridge into out.
//
// Read endpoints normally return an object, but the bridge reports failures
// (e.g. unauthorized) as the same error array write endpoints use, so a
// leading '[' is parsed as a result list first.
func (c *Client) get(ctx context.Context, address, path string, out any) error {
	raw, err := c.do(ctx, http.MethodGet, address, path, nil)
	if err != nil {
		return err
	}

	if isArray(raw) {
		items, err := decodeItems("get "+path, raw)
		if err != nil {
			return err
		}
		if err := firstError(items); err != nil {
			return err
		}
		return ErrEmptyResponse
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: "decoding " + path, Err: err}
	}
	return nil
}

// put sends a state change and checks the per-field acknowledgements.
func (c *Client) put(ctx context.Context, address, path string, change StateChange) error {
	body, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshalling state change: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPut, address, path, body)
	if err != nil {
		return err
	}

	items, err := decodeItems("put "+path, raw)
	if err != nil {
		return err
	}
	return firstError(items)
}

// do performs one HTTP round trip and returns the raw response body.
// All network and read failures surface as *TransportError.
func (c *Client) do(ctx context.Context, method, address, path string, body []byte) ([]byte, error) {
	url := "http://" + address + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // Read side close, nothing to do on failure

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "reading response for " + path, Err: err}
	}

	// The bridge reports application errors in the JSON body with a 200
	// status. Non-2xx statuses only occur when something other than the
	// bridge firmware answered.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return raw, nil
}

// decodeItems parses a write-style response array.
func decodeItems(op string, raw []byte) ([]responseItem, error) {
	var items []responseItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &TransportError{Op: "decoding response for " + op, Err: err}
	}
	return items, nil
}

// firstError returns the first bridge-reported error in a result list, or nil.
func firstError(items []responseItem) error {
	for _, item := range items {
		if item.Error != nil {
			return &APIError{
				Type:        item.Error.Type,
				Address:     item.Error.Address,
				Description: item.Error.Description,
			}
		}
	}
	return nil
}

// isArray reports whether raw JSON starts with '[' (ignoring whitespace).
func isArray(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
