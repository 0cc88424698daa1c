package services

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/repository"
)

// AddressBook keeps the saved addresses and the checkout selection.
// The selection never points at an address missing from the last fetched list.
type AddressBook struct {
	client    clients.AddressClient
	state     *repository.LocalState
	session   *Session
	validator *inputValidator
	log       *zap.Logger

	mu       sync.RWMutex
	list     []models.Address
	selected *models.Address
	loaded   bool
}

func NewAddressBook(client clients.AddressClient, state *repository.LocalState, session *Session, log *zap.Logger) *AddressBook {
	if log == nil {
		log = zap.NewNop()
	}
	return &AddressBook{
		client:    client,
		state:     state,
		session:   session,
		validator: newInputValidator(),
		log:       log,
		list:      []models.Address{},
	}
}

// Refresh reloads the list and re-binds the cached selection to the fresh record.
// A selection missing from the list falls back to the first address.
func (b *AddressBook) Refresh(ctx context.Context) ([]models.Address, error) {
	list, err := b.client.ListAddresses(ctx)
	if err != nil {
		b.log.Warn("Failed to load addresses", zap.Error(err))
		return nil, b.session.Guard(ctx, err)
	}

	cached, err := b.state.SelectedAddress(ctx)
	if err != nil {
		b.log.Warn("Ignoring unreadable cached address", zap.Error(err))
		cached = nil
	}

	b.mu.Lock()
	b.list = list
	b.loaded = true
	preferred := cached
	if b.selected != nil {
		preferred = b.selected
	}
	b.selected = reconcile(list, preferred)
	selected := copyAddress(b.selected)
	b.mu.Unlock()

	b.persist(ctx, selected)
	return b.List(), nil
}

// Save creates addr, or updates it when it carries an id
func (b *AddressBook) Save(ctx context.Context, addr models.Address) (*models.Address, error) {
	addr = normaliseAddress(addr)
	if err := b.validator.Struct(addr); err != nil {
		return nil, err
	}

	var (
		saved *models.Address
		err   error
	)
	if addr.ID == "" {
		saved, err = b.client.CreateAddress(ctx, addr)
	} else {
		saved, err = b.client.UpdateAddress(ctx, addr)
	}
	if err != nil {
		b.log.Warn("Failed to save address", zap.String("address_id", addr.ID.String()), zap.Error(err))
		return nil, b.session.Guard(ctx, err)
	}
	if saved == nil && addr.ID != "" {
		saved = &addr
	}

	b.mu.Lock()
	switch {
	case saved != nil && b.selected != nil && b.selected.ID == saved.ID:
		b.selected = copyAddress(saved)
	case saved != nil && b.selected == nil:
		b.selected = copyAddress(saved)
	}
	b.mu.Unlock()

	if _, err := b.Refresh(ctx); err != nil {
		return saved, nil
	}
	if saved != nil {
		if fresh, ok := models.FindAddress(b.List(), saved.ID); ok {
			return &fresh, nil
		}
	}
	return saved, nil
}

// Delete removes an address. Deleting the selection falls back to the first remaining address.
// Before the first Refresh the remaining list is fetched from the server.
func (b *AddressBook) Delete(ctx context.Context, id models.ID) error {
	if id == "" {
		return apperrors.FieldValidation("id", "Address id is required")
	}
	if err := b.client.DeleteAddress(ctx, id); err != nil {
		b.log.Warn("Failed to delete address", zap.String("address_id", id.String()), zap.Error(err))
		return b.session.Guard(ctx, err)
	}

	b.mu.RLock()
	loaded := b.loaded
	b.mu.RUnlock()
	if !loaded {
		if _, err := b.Refresh(ctx); err != nil {
			b.forgetCached(ctx, id)
		}
		return nil
	}

	b.mu.Lock()
	remaining := make([]models.Address, 0, len(b.list))
	for _, a := range b.list {
		if a.ID != id {
			remaining = append(remaining, a)
		}
	}
	b.list = remaining
	b.selected = reconcile(remaining, b.selected)
	selected := copyAddress(b.selected)
	b.mu.Unlock()

	b.persist(ctx, selected)
	return nil
}

// Select makes id the checkout address
func (b *AddressBook) Select(ctx context.Context, id models.ID) (*models.Address, error) {
	b.mu.RLock()
	loaded := b.loaded
	b.mu.RUnlock()
	if !loaded {
		if _, err := b.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	addr, ok := models.FindAddress(b.list, id)
	if !ok {
		b.mu.Unlock()
		return nil, apperrors.FieldValidation("addressId", "Address not found")
	}
	b.selected = &addr
	b.mu.Unlock()

	b.persist(ctx, &addr)
	return &addr, nil
}

// Selected returns the checkout address. Before the first Refresh it falls
// back to the locally cached selection.
func (b *AddressBook) Selected(ctx context.Context) *models.Address {
	b.mu.RLock()
	loaded, selected := b.loaded, copyAddress(b.selected)
	b.mu.RUnlock()
	if loaded {
		return selected
	}
	cached, err := b.state.SelectedAddress(ctx)
	if err != nil {
		return nil
	}
	return cached
}

// List returns the last fetched addresses
func (b *AddressBook) List() []models.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Address, len(b.list))
	copy(out, b.list)
	return out
}

// forgetCached drops the cached selection when it points at id
func (b *AddressBook) forgetCached(ctx context.Context, id models.ID) {
	cached, err := b.state.SelectedAddress(ctx)
	if err != nil || (cached != nil && cached.ID == id) {
		b.persist(ctx, nil)
	}
}

func (b *AddressBook) persist(ctx context.Context, selected *models.Address) {
	if err := b.state.SaveSelectedAddress(ctx, selected); err != nil {
		b.log.Warn("Failed to cache selected address", zap.Error(err))
	}
}

// reconcile picks the record in list matching preferred, else the first one
func reconcile(list []models.Address, preferred *models.Address) *models.Address {
	if preferred != nil {
		if fresh, ok := models.FindAddress(list, preferred.ID); ok {
			return &fresh
		}
	}
	if len(list) == 0 {
		return nil
	}
	first := list[0]
	return &first
}

func copyAddress(a *models.Address) *models.Address {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func normaliseAddress(a models.Address) models.Address {
	a.ID = models.ID(strings.TrimSpace(a.ID.String()))
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		a.Title = models.DefaultAddressTitle
	}
	a.House = strings.TrimSpace(a.House)
	a.Street = strings.TrimSpace(a.Street)
	a.Landmark = strings.TrimSpace(a.Landmark)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}
