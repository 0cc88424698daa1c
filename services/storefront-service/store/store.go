package store

import (
	"sync"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// Snapshot is an immutable view of the store at one version
type Snapshot struct {
	Version       uint64
	Cart          models.Cart
	CartCount     int
	Wishlist      []models.WishlistItem
	WishlistCount int
}

// Listener receives every change. Listeners must not write to the store they observe.
type Listener func(Snapshot)

// Store holds the cart and wishlist collections observed by the UI
type Store struct {
	mu       sync.RWMutex
	version  uint64
	cart     models.Cart
	wishlist []models.WishlistItem

	listenersMu sync.Mutex
	nextID      int
	listeners   map[int]Listener

	// notifyMu keeps deliveries in version order
	notifyMu sync.Mutex
}

func New() *Store {
	return &Store{
		cart:      models.EmptyCart(),
		wishlist:  []models.WishlistItem{},
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers fn and returns the function that removes it
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Cart() models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// SetCart replaces the cart wholesale and notifies listeners
func (s *Store) SetCart(cart models.Cart) {
	s.update(func() { s.cart = cart.Clone() })
}

// SetWishlist replaces the wishlist wholesale and notifies listeners
func (s *Store) SetWishlist(items []models.WishlistItem) {
	s.update(func() { s.wishlist = copyWishlist(items) })
}

// Reset empties both collections
func (s *Store) Reset() {
	s.update(func() {
		s.cart = models.EmptyCart()
		s.wishlist = []models.WishlistItem{}
	})
}

func (s *Store) update(apply func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	apply()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:       s.version,
		Cart:          s.cart.Clone(),
		CartCount:     s.cart.ItemCount(),
		Wishlist:      copyWishlist(s.wishlist),
		WishlistCount: len(s.wishlist),
	}
}

func copyWishlist(items []models.WishlistItem) []models.WishlistItem {
	out := make([]models.WishlistItem, len(items))
	copy(out, items)
	return out
}
