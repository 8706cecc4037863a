// auth - клиент эндпоинтов выдачи пар токенов и текущей личности.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-waste-client/internal/clients/rest"
	"github.com/pribylovaa/go-waste-client/internal/models"
)

const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathRefresh  = "/auth/refresh"
	PathMe       = "/me"
)

type Client struct {
	rest *rest.Client
}

func New(rc *rest.Client) *Client {
	return &Client{rest: rc}
}

// Login - POST /auth/login.
func (c *Client) Login(ctx context.Context, in models.LoginRequest) (models.CredentialPair, error) {
	const op = "auth.Client.Login"

	var out models.CredentialPair
	if err := c.rest.Do(ctx, http.MethodPost, PathLogin, in, &out); err != nil {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return out.Normalized(), nil
}

// Register - POST /auth/register.
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (models.CredentialPair, error) {
	const op = "auth.Client.Register"

	var out models.CredentialPair
	if err := c.rest.Do(ctx, http.MethodPost, PathRegister, in, &out); err != nil {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return out.Normalized(), nil
}

// Refresh - POST /auth/refresh. Клиент должен быть собран на цепочке
// без Credentials и Refresh, иначе вызов перехватит сам себя.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.CredentialPair, error) {
	const op = "auth.Client.Refresh"

	var out models.CredentialPair
	in := models.RefreshRequest{RefreshToken: refreshToken}
	if err := c.rest.Do(ctx, http.MethodPost, PathRefresh, in, &out); err != nil {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return out.Normalized(), nil
}

// Me - GET /me с текущей парой.
func (c *Client) Me(ctx context.Context) (*models.Identity, error) {
	const op = "auth.Client.Me"

	var out models.Identity
	if err := c.rest.Do(ctx, http.MethodGet, PathMe, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
