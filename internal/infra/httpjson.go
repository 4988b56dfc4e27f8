package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single attempt against a model API.
const DefaultTimeout = 60 * time.Second

// NewHTTPClient returns a client with the given per-attempt timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// PostJSON encodes body once and posts it to url, retrying transient
// failures. The raw 200 body is returned; any other status becomes a
// StatusError tagged with vendor.
func PostJSON(ctx context.Context, client *http.Client, vendor, url string, header http.Header, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", vendor, err)
	}

	var out []byte
	err = WithRetry(ctx, DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return Permanent(fmt.Errorf("%s: creating request: %w", vendor, err))
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: sending request: %w", vendor, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: reading response: %w", vendor, err)
		}
		if resp.StatusCode != http.StatusOK {
			return StatusError(vendor, resp.StatusCode, data)
		}

		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeJSON posts like PostJSON and unmarshals the answer into out.
func DecodeJSON(ctx context.Context, client *http.Client, vendor, url string, header http.Header, body, out any) error {
	data, err := PostJSON(ctx, client, vendor, url, header, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", vendor, err)
	}
	return nil
}
