package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/storage"
)

// Keys written to the local store
const (
	KeySelectedAddress = "@saved_user_address"
	KeyOrderHistory    = "@order_history"
	KeyAccessToken     = "AccessToken"
)

// LocalState persists the selected address, order history and auth token
type LocalState struct {
	kv storage.KV

	// historyMu serialises read-modify-write of the history array
	historyMu sync.Mutex
}

func NewLocalState(kv storage.KV) *LocalState {
	return &LocalState{kv: kv}
}

// SelectedAddress returns the cached selection, or nil
func (s *LocalState) SelectedAddress(ctx context.Context) (*models.Address, error) {
	data, err := s.kv.Get(ctx, KeySelectedAddress)
	if err != nil || data == nil {
		return nil, err
	}
	var addr models.Address
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, fmt.Errorf("decode selected address: %w", err)
	}
	return &addr, nil
}

// SaveSelectedAddress caches addr, or clears the selection when addr is nil
func (s *LocalState) SaveSelectedAddress(ctx context.Context, addr *models.Address) error {
	if addr == nil {
		return s.kv.Delete(ctx, KeySelectedAddress)
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeySelectedAddress, data)
}

// OrderHistory returns receipts in the order they were written
func (s *LocalState) OrderHistory(ctx context.Context) ([]models.Order, error) {
	data, err := s.kv.Get(ctx, KeyOrderHistory)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("decode order history: %w", err)
	}
	return orders, nil
}

// AppendOrder adds one receipt to the end of the history
func (s *LocalState) AppendOrder(ctx context.Context, order models.Order) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	orders, err := s.OrderHistory(ctx)
	if err != nil {
		return err
	}
	orders = append(orders, order)
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyOrderHistory, data)
}

func (s *LocalState) Token(ctx context.Context) (string, error) {
	data, err := s.kv.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *LocalState) SaveToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, KeyAccessToken, []byte(token))
}

func (s *LocalState) ClearToken(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyAccessToken)
}
