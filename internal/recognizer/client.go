// Package recognizer posts canvas snapshots to the upload endpoint and reads
// back the recognized label.
package recognizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"DigitPad/internal/state"
)

const DefaultUploadPath = "/upload/"

// Payload selects how the PNG travels in the request body.
type Payload int

const (
	PayloadDataURL Payload = iota // data:image/png;base64,...
	PayloadRaw                    // raw image/png bytes
)

func (p Payload) String() string {
	if p == PayloadRaw {
		return "raw"
	}
	return "dataurl"
}

func ParsePayload(s string) (Payload, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dataurl", "data-url":
		return PayloadDataURL, nil
	case "raw", "png":
		return PayloadRaw, nil
	default:
		return PayloadDataURL, fmt.Errorf("unknown payload encoding %q", s)
	}
}

// StatusError is returned when the endpoint answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recognizer returned status %d", e.Code)
}

// StatusCode exposes the HTTP status to callers that only know the method.
func (e *StatusError) StatusCode() int { return e.Code }

type Client struct {
	BaseURL     string
	UploadPath  string
	Payload     Payload
	ExpectLabel bool // require a {"value": ...} body on success
	HTTPClient  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		UploadPath:  DefaultUploadPath,
		Payload:     PayloadDataURL,
		ExpectLabel: true,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	Value json.RawMessage `json:"value"`
}

// Recognize uploads one PNG snapshot. id is sent as X-Request-ID.
func (c *Client) Recognize(ctx context.Context, id string, png []byte) (string, error) {
	body, contentType := c.encode(png)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", id)
	req.Header.Set("X-Session-ID", state.SessionID())

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[RECOGNIZER] %s answered %d for %s", c.endpoint(), resp.StatusCode, id)
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if !c.ExpectLabel {
		return "", nil
	}
	return parseLabel(data)
}

func (c *Client) endpoint() string {
	path := c.UploadPath
	if path == "" {
		path = DefaultUploadPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(c.BaseURL, "/") + path
}

func (c *Client) encode(png []byte) ([]byte, string) {
	if c.Payload == PayloadRaw {
		return png, "image/png"
	}
	return []byte(DataURL(png)), "text/plain;charset=UTF-8"
}

// DataURL renders PNG bytes the way a browser canvas does.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// parseLabel renders the "value" field as text, so 7 and "7" both give "7".
func parseLabel(data []byte) (string, error) {
	var resp uploadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	raw := bytes.TrimSpace(resp.Value)
	if len(raw) == 0 {
		return "", fmt.Errorf("parse upload response: missing value")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(raw), nil
}
