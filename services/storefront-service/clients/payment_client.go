package clients

import (
	"context"
	"net/http"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

const paymentFailed = "Failed to place order"

// PaymentClient submits orders to the remote payment service
type PaymentClient interface {
	PayCOD(ctx context.Context, req models.CODCheckoutRequest) (*models.CheckoutResult, error)
	PayCard(ctx context.Context, req models.CardCheckoutRequest) (*models.CheckoutResult, error)
}

type paymentClient struct {
	gw *GatewayClient
}

func NewPaymentClient(gw *GatewayClient) PaymentClient {
	return &paymentClient{gw: gw}
}

func (c *paymentClient) PayCOD(ctx context.Context, req models.CODCheckoutRequest) (*models.CheckoutResult, error) {
	return c.submit(ctx, "/api/payment/cod", req)
}

func (c *paymentClient) PayCard(ctx context.Context, req models.CardCheckoutRequest) (*models.CheckoutResult, error) {
	return c.submit(ctx, "/api/payment/card", req)
}

func (c *paymentClient) submit(ctx context.Context, path string, body interface{}) (*models.CheckoutResult, error) {
	var result models.CheckoutResult
	if _, err := c.gw.Do(ctx, http.MethodPost, path, nil, body, &result, paymentFailed); err != nil {
		return nil, err
	}
	if result.Failed() {
		return nil, apperrors.Server(http.StatusUnprocessableEntity, result.Message, paymentFailed)
	}
	return &result, nil
}
