package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const pathServiceAreas = "/admin/service-areas"

func (c *Client) ListServiceAreas(ctx context.Context) ([]models.ServiceArea, error) {
	const op = "api.Client.ListServiceAreas"

	var out items[models.ServiceArea]
	if err := c.rest.Do(ctx, http.MethodGet, pathServiceAreas, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Items, nil
}

func (c *Client) CreateServiceArea(ctx context.Context, in models.ServiceArea) (*models.ServiceArea, error) {
	const op = "api.Client.CreateServiceArea"

	if in.Name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var out models.ServiceArea
	if err := c.rest.Do(ctx, http.MethodPost, pathServiceAreas, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UpdateServiceArea заменяет зону целиком по in.ID.
func (c *Client) UpdateServiceArea(ctx context.Context, in models.ServiceArea) (*models.ServiceArea, error) {
	const op = "api.Client.UpdateServiceArea"

	path, err := pathID(pathServiceAreas, in.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.ServiceArea
	if err := c.rest.Do(ctx, http.MethodPut, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) DeleteServiceArea(ctx context.Context, id string) error {
	const op = "api.Client.DeleteServiceArea"

	path, err := pathID(pathServiceAreas, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.rest.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
