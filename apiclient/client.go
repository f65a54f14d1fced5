package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apitypes "github.com/Alia5/xrinput/apitypes"
)

// Client provides a high-level interface to the xrinput API, handling request
// formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the API server.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
// This is primarily useful for testing.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the server.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	const path = "ping"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.PingResponse](raw)
}

// ControllerList returns every announced controller ordered by slot.
func (c *Client) ControllerList() (*apitypes.ControllerListResponse, error) {
	return c.ControllerListCtx(context.Background())
}

func (c *Client) ControllerListCtx(ctx context.Context) (*apitypes.ControllerListResponse, error) {
	const path = "controller/list"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ControllerListResponse](raw)
}

// ControllerInspect returns the state and a human readable dump of the
// controller in slot.
func (c *Client) ControllerInspect(slot int) (*apitypes.ControllerInspectResponse, error) {
	return c.ControllerInspectCtx(context.Background(), slot)
}

func (c *Client) ControllerInspectCtx(ctx context.Context, slot int) (*apitypes.ControllerInspectResponse, error) {
	pathParams := map[string]string{"slot": fmt.Sprintf("%d", slot)}
	const path = "controller/{slot}"
	raw, err := c.transport.DoCtx(ctx, path, nil, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ControllerInspectResponse](raw)
}

// MappingList returns the semantic table the server resolves controllers
// against.
func (c *Client) MappingList() (*apitypes.MappingListResponse, error) {
	return c.MappingListCtx(context.Background())
}

func (c *Client) MappingListCtx(ctx context.Context) (*apitypes.MappingListResponse, error) {
	const path = "mapping/list"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.MappingListResponse](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
