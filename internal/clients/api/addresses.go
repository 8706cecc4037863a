package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const pathAddressSearch = "/addresses/search"

// SearchAddresses - подсказки адресов по строке. Пустой запрос в сеть не уходит.
func (c *Client) SearchAddresses(ctx context.Context, query string) ([]models.Address, error) {
	const op = "api.Client.SearchAddresses"

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Address{}, nil
	}

	var out items[models.Address]
	path := withQuery(pathAddressSearch, url.Values{"q": {query}})
	if err := c.rest.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Items, nil
}
