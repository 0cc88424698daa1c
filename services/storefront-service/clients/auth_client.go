package clients

import (
	"context"
	"net/http"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// AuthClient exchanges credentials for a bearer token
type AuthClient interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type authClient struct {
	gw *GatewayClient
}

func NewAuthClient(gw *GatewayClient) AuthClient {
	return &authClient{gw: gw}
}

func (c *authClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Email: email, Password: password}
	if _, err := c.gw.Do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp, "Login failed"); err != nil {
		return "", err
	}
	token := resp.BearerToken()
	if token == "" {
		return "", apperrors.Server(http.StatusBadGateway, "", "Login failed")
	}
	return token, nil
}
