package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const pathPaymentMethods = "/payment-methods"

func (c *Client) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	const op = "api.Client.ListPaymentMethods"

	var out items[models.PaymentMethod]
	if err := c.rest.Do(ctx, http.MethodGet, pathPaymentMethods, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Items, nil
}

// RegisterPaymentMethod регистрирует токен платёжного провайдера.
// Номер карты через клиент не проходит.
func (c *Client) RegisterPaymentMethod(ctx context.Context, in models.RegisterPaymentMethodRequest) (*models.PaymentMethod, error) {
	const op = "api.Client.RegisterPaymentMethod"

	if in.Kind == "" || in.ProviderToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var out models.PaymentMethod
	if err := c.rest.Do(ctx, http.MethodPost, pathPaymentMethods, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) DeletePaymentMethod(ctx context.Context, id string) error {
	const op = "api.Client.DeletePaymentMethod"

	path, err := pathID(pathPaymentMethods, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.rest.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
