package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// AddressClient talks to the remote address service
type AddressClient interface {
	ListAddresses(ctx context.Context) ([]models.Address, error)
	CreateAddress(ctx context.Context, addr models.Address) (*models.Address, error)
	UpdateAddress(ctx context.Context, addr models.Address) (*models.Address, error)
	DeleteAddress(ctx context.Context, id models.ID) error
}

type addressClient struct {
	gw *GatewayClient
}

func NewAddressClient(gw *GatewayClient) AddressClient {
	return &addressClient{gw: gw}
}

func (c *addressClient) ListAddresses(ctx context.Context) ([]models.Address, error) {
	list := []models.Address{}
	if err := c.gw.getList(ctx, "/address/all", &list, "Failed to load addresses", "addresses", "data"); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *addressClient) CreateAddress(ctx context.Context, addr models.Address) (*models.Address, error) {
	return c.save(ctx, http.MethodPost, "/address/add", addr)
}

func (c *addressClient) UpdateAddress(ctx context.Context, addr models.Address) (*models.Address, error) {
	return c.save(ctx, http.MethodPut, "/address/update/"+url.PathEscape(addr.ID.String()), addr)
}

// save returns the stored record, or nil when the service answered without a body
func (c *addressClient) save(ctx context.Context, method, path string, addr models.Address) (*models.Address, error) {
	var saved models.Address
	decoded, err := c.gw.Do(ctx, method, path, nil, addr, &saved, "Failed to save address")
	if err != nil || !decoded || saved.ID == "" {
		return nil, err
	}
	return &saved, nil
}

func (c *addressClient) DeleteAddress(ctx context.Context, id models.ID) error {
	_, err := c.gw.Do(ctx, http.MethodDelete, "/address/delete/"+url.PathEscape(id.String()), nil, nil, nil, "Failed to delete address")
	return err
}
