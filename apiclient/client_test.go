package apiclient_test

import (
	"context"
	"errors"
	"testing"

	apiclient "github.com/Alia5/xrinput/apiclient"
	apitypes "github.com/Alia5/xrinput/apitypes"

	"github.com/stretchr/testify/assert"
)

// testClient constructs a client backed by a simple in-memory responder.
// responses maps request paths (before path param substitution) to raw JSON
// payloads. If err is non-nil, every request returns that error, simulating
// dial failures.
func testClient(responses map[string]string, err error) *apiclient.Client {
	return apiclient.WithTransport(apiclient.NewMockTransport(func(path string, _ any, _ map[string]string) (string, error) {
		if err != nil {
			return "", err
		}
		if out, ok := responses[path]; ok {
			return out, nil
		}
		return "", nil
	}))
}

func TestHighLevelClient(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(responses map[string]string) error
		call       func(c *apiclient.Client) (any, error)
		wantErr    string
		assertFunc func(t *testing.T, got any)
	}{
		{
			name: "ping",
			setup: func(responses map[string]string) error {
				responses["ping"] = `{"server":"xrinput","version":"dev"}`
				return nil
			},
			call: func(c *apiclient.Client) (any, error) { return c.Ping() },
			assertFunc: func(t *testing.T, got any) {
				assert.Equal(t, &apitypes.PingResponse{Server: "xrinput", Version: "dev"}, got.(*apitypes.PingResponse))
			},
		},
		{
			name: "controller list",
			setup: func(responses map[string]string) error {
				responses["controller/list"] = `{"controllers":[{"slot":1,"id":"Daydream Controller","style":"daydream","mapped":true,"dof":3,"hand":"left","axes":[0,0],"groups":[],"buttons":[],"orientation":[0,0,0,1],"position":[0,0,0],"world":[],"armModel":true}]}`
				return nil
			},
			call: func(c *apiclient.Client) (any, error) { return c.ControllerList() },
			assertFunc: func(t *testing.T, got any) {
				resp := got.(*apitypes.ControllerListResponse)
				assert.Len(t, resp.Controllers, 1)
				assert.Equal(t, "daydream", resp.Controllers[0].Style)
				assert.True(t, resp.Controllers[0].ArmModel)
			},
		},
		{
			name: "controller inspect not found",
			setup: func(responses map[string]string) error {
				responses["controller/{slot}"] = `{"status":404,"title":"Not Found","detail":"no controller in slot 3"}`
				return nil
			},
			call:    func(c *apiclient.Client) (any, error) { return c.ControllerInspect(3) },
			wantErr: "no controller in slot 3",
		},
		{
			name: "mapping list",
			setup: func(responses map[string]string) error {
				responses["mapping/list"] = `{"mappings":[{"id":"x","style":"y","axes":[],"buttons":["a"],"primary":""}]}`
				return nil
			},
			call: func(c *apiclient.Client) (any, error) { return c.MappingList() },
			assertFunc: func(t *testing.T, got any) {
				resp := got.(*apitypes.MappingListResponse)
				assert.Equal(t, []string{"a"}, resp.Mappings[0].Buttons)
			},
		},
		{
			name:    "transport error",
			setup:   func(responses map[string]string) error { return errors.New("dial fail") },
			call:    func(c *apiclient.Client) (any, error) { return c.ControllerList() },
			wantErr: "dial fail",
		},
		{
			name:    "blank response",
			call:    func(c *apiclient.Client) (any, error) { return c.Ping() },
			wantErr: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := map[string]string{}
			errInject := error(nil)
			if tt.setup != nil {
				if e := tt.setup(responses); e != nil {
					errInject = e
				}
			}
			c := testClient(responses, errInject)
			got, err := tt.call(c)
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
			if tt.assertFunc != nil {
				tt.assertFunc(t, got)
			}
		})
	}
}

func TestContextCancellation(t *testing.T) {
	c := apiclient.WithTransport(apiclient.NewTransport("127.0.0.1:9")) // address irrelevant due to early cancel
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ControllerListCtx(ctx)
	assert.Error(t, err)
}

func TestStrictJSONDecode(t *testing.T) {
	responses := map[string]string{}
	responses["ping"] = `{"server":"xrinput","version":"dev","extra":true}`
	c := testClient(responses, nil)
	_, err := c.Ping()
	assert.ErrorContains(t, err, "decode:")
}
