package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestServer(t *testing.T) (*httptest.Server, *fixedClock) {
	t.Helper()
	clk := &fixedClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	key := make([]byte, 32)
	c, err := codec.New(key, key, codec.WithClock(clk.Now))
	require.NoError(t, err)

	svc := services.NewQRService(c, nil, nil, logging.Nop{}, time.Hour, 300)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) })

	srv := httptest.NewServer(NewRouter(NewHandler(svc, logging.Nop{}), metrics))
	t.Cleanup(srv.Close)
	return srv, clk
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func mintEnvelope(t *testing.T, base, body string) string {
	t.Helper()
	resp, b := post(t, base+"/v1/mint", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	var res api.MintResponse
	require.NoError(t, json.Unmarshal(b, &res))
	return res.Envelope
}

func TestHTTP_Scenario(t *testing.T) {
	srv, clk := newTestServer(t)

	resp, b := post(t, srv.URL+"/v1/mint", `{"item_id":"ITEM-1","content_address":"bafy123","chain_id":80002,"ttl_minutes":60}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var minted api.MintResponse
	require.NoError(t, json.Unmarshal(b, &minted))
	assert.Equal(t, 2, strings.Count(minted.Envelope, ":"))
	assert.Equal(t, "ITEM-1", minted.ItemID)
	assert.Equal(t, int64(80002), minted.ChainID)
	assert.Equal(t, len(minted.Envelope), minted.EnvelopeLength)

	resp, b = post(t, srv.URL+"/v1/verify", `{"envelope":"`+minted.Envelope+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var verified api.VerifyResponse
	require.NoError(t, json.Unmarshal(b, &verified))
	assert.Equal(t, "ITEM-1", string(verified.Record.ItemID))
	assert.Equal(t, int64(80002), verified.Record.ChainID)

	clk.Advance(61 * time.Minute)
	resp, b = post(t, srv.URL+"/v1/verify", `{"envelope":"`+minted.Envelope+`"}`)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	var e api.ErrorResponse
	require.NoError(t, json.Unmarshal(b, &e))
	assert.Equal(t, "expired", e.Kind)
}

func TestHTTP_Validate(t *testing.T) {
	srv, _ := newTestServer(t)
	env := mintEnvelope(t, srv.URL, `{"item_id":"Y","content_address":"bafy123","chain_id":5}`)

	resp, b := post(t, srv.URL+"/v1/validate", `{"envelope":"`+env+`","expected_item_id":"X","expected_chain_id":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))

	var vr api.ValidateResponse
	require.NoError(t, json.Unmarshal(b, &vr))
	assert.False(t, vr.Valid)
	assert.Equal(t, []string{"item id mismatch"}, vr.Errors)
	require.NotNil(t, vr.Record)
	assert.Equal(t, "Y", string(vr.Record.ItemID))
}

func TestHTTP_MultiChain(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, b := post(t, srv.URL+"/v1/mint/multichain", `{"item_id":"P1","chain_map":{"1":"cidA","2":"cidB"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	var minted api.MintResponse
	require.NoError(t, json.Unmarshal(b, &minted))
	assert.Equal(t, 2, minted.ChainCount)

	resp, b = post(t, srv.URL+"/v1/verify", `{"envelope":"`+minted.Envelope+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"chain_map":{"1":"cidA","2":"cidB"}`)

	resp, _ = post(t, srv.URL+"/v1/mint/multichain", `{"item_id":"P1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/v1/mint", `{"item_id":"P1","chain_map":{"1":"cidA"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_MintWithImageAndRender(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, b := post(t, srv.URL+"/v1/mint/image", `{"item_id":"ITEM-1","content_address":"bafy123","chain_id":1,"image_size_px":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	var minted api.MintResponse
	require.NoError(t, json.Unmarshal(b, &minted))
	assert.NotEmpty(t, minted.ImageBase64)
	assert.Equal(t, 100, minted.ImageSizePx)

	resp, b = post(t, srv.URL+"/v1/image?size=64", `{"envelope":"`+minted.Envelope+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))

	resp, _ = post(t, srv.URL+"/v1/image?size=-3", `{"envelope":"`+minted.Envelope+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/v1/image?size=5000", `{"envelope":"`+minted.Envelope+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_ImageSizeIsClientError(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, size := range []string{"5000", "-3"} {
		resp, b := post(t, srv.URL+"/v1/mint/image", `{"item_id":"ITEM-1","content_address":"bafy123","chain_id":1,"image_size_px":`+size+`}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(b))

		var e api.ErrorResponse
		require.NoError(t, json.Unmarshal(b, &e))
		assert.Equal(t, "invalid_record", e.Kind)
		assert.Contains(t, e.Error, "image_size_px")
	}
}

func TestHTTP_RenderFailureKeepsMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	// Well formed, but far beyond the capacity of a QR symbol.
	field := strings.Repeat("ab", 1500)
	env := field + ":" + field + ":" + field

	resp, b := post(t, srv.URL+"/v1/image", `{"envelope":"`+env+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(b))

	var e api.ErrorResponse
	require.NoError(t, json.Unmarshal(b, &e))
	assert.Equal(t, "render_failed", e.Kind)
	assert.NotEqual(t, "internal error", e.Error)
}

func TestHTTP_ErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	env := mintEnvelope(t, srv.URL, `{"item_id":"A","content_address":"x","chain_id":1}`)
	tampered := env[:len(env)-1] + "0"
	if tampered == env {
		tampered = env[:len(env)-1] + "1"
	}

	tests := []struct {
		name string
		path string
		body string
		want int
		kind string
	}{
		{"malformed", "/v1/verify", `{"envelope":"a:b"}`, http.StatusBadRequest, "malformed_envelope"},
		{"tampered", "/v1/verify", `{"envelope":"` + tampered + `"}`, http.StatusForbidden, "integrity_failure"},
		{"tampered scan", "/v1/validate", `{"envelope":"` + tampered + `","expected_item_id":"A"}`, http.StatusForbidden, "integrity_failure"},
		{"invalid record", "/v1/mint", `{"item_id":"","content_address":"x","chain_id":1}`, http.StatusBadRequest, "invalid_record"},
		{"negative ttl", "/v1/mint", `{"item_id":"A","content_address":"x","chain_id":1,"ttl_minutes":-1}`, http.StatusBadRequest, "invalid_record"},
		{"unknown field", "/v1/verify", `{"envelope":"a:b:c","extra":1}`, http.StatusBadRequest, "bad_request"},
		{"two objects", "/v1/verify", `{"envelope":"a:b:c"}{}`, http.StatusBadRequest, "bad_request"},
		{"not json", "/v1/verify", `envelope`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, b := post(t, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(b))
			var e api.ErrorResponse
			require.NoError(t, json.Unmarshal(b, &e))
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestHTTP_HealthMetricsAndMethods(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/mint")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTP_RequestIDEcho(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(nil))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(common.ErrDecryptionFailed))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(common.ErrCorruptRecord))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(common.ErrRenderFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("x")))
}
