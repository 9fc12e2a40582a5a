package recognizer

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type captured struct {
	method, path, contentType, requestedWith, requestID string
	body                                                []byte
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.requestedWith = r.Header.Get("X-Requested-With")
		got.requestID = r.Header.Get("X-Request-ID")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

// TestRecognize_NumericValue verifies {"value": 7} yields the label "7".
func TestRecognize_NumericValue(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"value": 7}`)
	c := NewClient(srv.URL)

	label, err := c.Recognize(context.Background(), "req-1", fakePNG)
	require.NoError(t, err)
	assert.Equal(t, "7", label)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/upload/", got.path)
	assert.Equal(t, "XMLHttpRequest", got.requestedWith)
	assert.Equal(t, "req-1", got.requestID)
	assert.Equal(t, "text/plain;charset=UTF-8", got.contentType)

	body := string(got.body)
	require.True(t, strings.HasPrefix(body, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(body, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, fakePNG, decoded)
}

func TestRecognize_StringValue(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"value": "3"}`)
	label, err := NewClient(srv.URL).Recognize(context.Background(), "id", fakePNG)
	require.NoError(t, err)
	assert.Equal(t, "3", label)
}

// TestRecognize_RawPayload verifies the raw variant posts PNG bytes unchanged.
func TestRecognize_RawPayload(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"value": 1}`)
	c := NewClient(srv.URL + "/")
	c.Payload = PayloadRaw

	_, err := c.Recognize(context.Background(), "id", fakePNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.contentType)
	assert.Equal(t, fakePNG, got.body)
	assert.Equal(t, "/upload/", got.path)
}

// TestRecognize_ServerError verifies a 500 becomes a StatusError carrying the code.
func TestRecognize_ServerError(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, "boom")
	_, err := NewClient(srv.URL).Recognize(context.Background(), "id", fakePNG)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.StatusCode())
	assert.Equal(t, "boom", se.Body)
	assert.Contains(t, err.Error(), "500")
}

// TestRecognize_AnyBodyWithoutLabel verifies the non-rendering variant accepts any 200 body.
func TestRecognize_AnyBodyWithoutLabel(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "<html>ok</html>")
	c := NewClient(srv.URL)
	c.ExpectLabel = false

	label, err := c.Recognize(context.Background(), "id", fakePNG)
	require.NoError(t, err)
	assert.Empty(t, label)
}

func TestRecognize_BadJSON(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "<html>ok</html>")
	_, err := NewClient(srv.URL).Recognize(context.Background(), "id", fakePNG)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse upload response")
}

func TestRecognize_MissingValue(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"status": "ok"}`)
	_, err := NewClient(srv.URL).Recognize(context.Background(), "id", fakePNG)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing value")
}

// TestRecognize_ContextDeadline verifies a slow endpoint is abandoned at the deadline.
func TestRecognize_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL).Recognize(ctx, "id", fakePNG)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload("RAW")
	require.NoError(t, err)
	assert.Equal(t, PayloadRaw, p)

	p, err = ParsePayload("")
	require.NoError(t, err)
	assert.Equal(t, PayloadDataURL, p)

	_, err = ParsePayload("gzip")
	assert.Error(t, err)
}

func TestEndpoint_CustomPath(t *testing.T) {
	c := NewClient("http://example.test/")
	c.UploadPath = "recognize"
	assert.Equal(t, "http://example.test/recognize", c.endpoint())
}
