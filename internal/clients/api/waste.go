package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const pathWasteRequests = "/waste-requests"

// ListWasteRequests - заявки текущего пользователя (водителю - доступные к приёму).
func (c *Client) ListWasteRequests(ctx context.Context, f models.WasteRequestFilter) (*models.WasteRequestPage, error) {
	const op = "api.Client.ListWasteRequests"

	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Cursor != "" {
		q.Set("cursor", f.Cursor)
	}

	var out models.WasteRequestPage
	if err := c.rest.Do(ctx, http.MethodGet, withQuery(pathWasteRequests, q), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) CreateWasteRequest(ctx context.Context, in models.CreateWasteRequest) (*models.WasteRequest, error) {
	const op = "api.Client.CreateWasteRequest"

	if in.Category == "" || in.VolumeLiters <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var out models.WasteRequest
	if err := c.rest.Do(ctx, http.MethodPost, pathWasteRequests, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) GetWasteRequest(ctx context.Context, id string) (*models.WasteRequest, error) {
	const op = "api.Client.GetWasteRequest"
	return c.wasteRequestCall(ctx, op, http.MethodGet, id, "")
}

func (c *Client) CancelWasteRequest(ctx context.Context, id string) (*models.WasteRequest, error) {
	const op = "api.Client.CancelWasteRequest"
	return c.wasteRequestCall(ctx, op, http.MethodPost, id, "cancel")
}

// AcceptWasteRequest - водитель берёт заявку.
func (c *Client) AcceptWasteRequest(ctx context.Context, id string) (*models.WasteRequest, error) {
	const op = "api.Client.AcceptWasteRequest"
	return c.wasteRequestCall(ctx, op, http.MethodPost, id, "accept")
}

// CompleteWasteRequest - водитель закрывает заявку после вывоза.
func (c *Client) CompleteWasteRequest(ctx context.Context, id string) (*models.WasteRequest, error) {
	const op = "api.Client.CompleteWasteRequest"
	return c.wasteRequestCall(ctx, op, http.MethodPost, id, "complete")
}

func (c *Client) wasteRequestCall(ctx context.Context, op, method, id, action string) (*models.WasteRequest, error) {
	var suffix []string
	if action != "" {
		suffix = append(suffix, action)
	}

	path, err := pathID(pathWasteRequests, id, suffix...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.WasteRequest
	if err := c.rest.Do(ctx, method, path, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
