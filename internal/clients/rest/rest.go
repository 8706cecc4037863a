// rest - тонкий JSON-клиент поверх Doer пайплайна.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-waste-client/internal/clients/interceptors"
	apierrors "github.com/pribylovaa/go-waste-client/internal/errors"
)

// Client выполняет JSON-вызовы относительно BaseURL.
type Client struct {
	Doer    interceptors.Doer
	BaseURL string
}

func New(doer interceptors.Doer, baseURL string) *Client {
	return &Client{Doer: doer, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Do кодирует in (если не nil) в JSON, выполняет запрос и декодирует ответ в out
// (если не nil и ответ не 204). Не-2xx ответ - *apierrors.APIError.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Doer.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %w", method, path, apierrors.FromResponse(resp))
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}

	return nil
}
