package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const (
	pathRoleApplications      = "/role-applications"
	pathAdminRoleApplications = "/admin/role-applications"
)

// SubmitRoleApplication - заявка пользователя на роль (обычно DRIVER).
func (c *Client) SubmitRoleApplication(ctx context.Context, in models.SubmitRoleApplicationRequest) (*models.RoleApplication, error) {
	const op = "api.Client.SubmitRoleApplication"

	if in.Role == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var out models.RoleApplication
	if err := c.rest.Do(ctx, http.MethodPost, pathRoleApplications, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// ListRoleApplications - свои заявки; администратору - все. status "" - без фильтра.
func (c *Client) ListRoleApplications(ctx context.Context, status string) ([]models.RoleApplication, error) {
	const op = "api.Client.ListRoleApplications"

	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}

	var out items[models.RoleApplication]
	if err := c.rest.Do(ctx, http.MethodGet, withQuery(pathRoleApplications, q), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Items, nil
}

// ReviewRoleApplication - решение администратора по заявке.
func (c *Client) ReviewRoleApplication(ctx context.Context, id string, in models.ReviewRoleApplicationRequest) (*models.RoleApplication, error) {
	const op = "api.Client.ReviewRoleApplication"

	path, err := pathID(pathAdminRoleApplications, id, "review")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.RoleApplication
	if err := c.rest.Do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
