package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/repository"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/storage"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/store"
)

// Endpoints are the collaborator base URLs
type Endpoints struct {
	Cart    string
	Address string
	Payment string
	Auth    string
	Timeout time.Duration

	// Breakers is shared by every workspace; nil disables circuit breaking
	Breakers *clients.BreakerSet
}

// Workspace is everything one signed-in user drives
type Workspace struct {
	UserID       string
	Store        *store.Store
	State        *repository.LocalState
	Session      *Session
	Orchestrator *Orchestrator
	Addresses    *AddressBook
	Checkout     *Checkout
	Wishlist     *Wishlist
	CouponAdmin  *CouponAdmin
}

// NewWorkspace wires one user's components. Outgoing calls carry the session's token.
func NewWorkspace(userID string, ep Endpoints, kv storage.KV, metrics aws_pkg.MetricsRecorder, log *zap.Logger) *Workspace {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("user_id", userID))

	st := store.New()
	state := repository.NewLocalState(kv)
	authClient := clients.NewAuthClient(clients.NewGatewayClient(ep.Auth, ep.Timeout, nil).WithBreaker(ep.Breakers.For(ep.Auth)))
	session := NewSession(authClient, state, st, metrics, log.Named("session"))

	gateway := func(base string) *clients.GatewayClient {
		return clients.NewGatewayClient(base, ep.Timeout, session.Token).WithBreaker(ep.Breakers.For(base))
	}
	cartGateway := gateway(ep.Cart)

	orch := NewOrchestrator(clients.NewCartClient(cartGateway), st, session, metrics, log.Named("cart"))
	addresses := NewAddressBook(clients.NewAddressClient(gateway(ep.Address)), state, session, log.Named("addresses"))

	return &Workspace{
		UserID:       userID,
		Store:        st,
		State:        state,
		Session:      session,
		Orchestrator: orch,
		Addresses:    addresses,
		Checkout:     NewCheckout(orch, addresses, clients.NewPaymentClient(gateway(ep.Payment)), state, session, metrics, log.Named("checkout")),
		Wishlist:     NewWishlist(clients.NewWishlistClient(cartGateway), st, session, log.Named("wishlist")),
		CouponAdmin:  NewCouponAdmin(clients.NewCouponAdminClient(cartGateway), session, log.Named("coupons")),
	}
}

// Close releases the workspace's background worker
func (w *Workspace) Close() {
	w.Orchestrator.Close()
}

// Bootstrap loads the cart, addresses and wishlist, logging partial failures
func (w *Workspace) Bootstrap(ctx context.Context) error {
	if err := w.Orchestrator.LoadCart(ctx); err != nil {
		return err
	}
	if _, err := w.Addresses.Refresh(ctx); err != nil {
		w.Session.log.Warn("Address refresh failed during bootstrap", zap.Error(err))
	}
	if _, err := w.Wishlist.Refresh(ctx); err != nil {
		w.Session.log.Warn("Wishlist refresh failed during bootstrap", zap.Error(err))
	}
	return nil
}
