package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ratthapon/storefront/internal/core/domain"
	"github.com/ratthapon/storefront/internal/port"
)

// CartService owns one in-memory cart per session and runs checkout
// against the catalog collaborators. Cart mutations cannot fail: inputs
// are normalized and applied atomically under the service lock, so a
// reader never observes a torn cart. Checkout is the only operation with
// external dependencies and therefore the only one that can error.
type CartService struct {
	catalog port.CatalogRepository
	cache   port.ProductCache
	pricing *PricingEngine
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	cart    domain.Cart
	summary domain.SummaryState
}

// CartLineView is an order line joined with its catalog display data.
// Product is nil when the line's product is no longer in the catalog; the
// line itself is still listed so the cart view never hides state.
type CartLineView struct {
	Line      domain.OrderLine
	Product   *domain.Product
	LineTotal decimal.Decimal
}

// CartView is the presentation contract: the current lines with resolved
// display data, the membership flag, and the last summary state.
type CartView struct {
	Lines   []CartLineView
	Member  bool
	Summary domain.SummaryState
}

func NewCartService(catalog port.CatalogRepository, cache port.ProductCache, pricing *PricingEngine, logger *zap.Logger) *CartService {
	return &CartService{
		catalog:  catalog,
		cache:    cache,
		pricing:  pricing,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// sessionLocked returns the session for id, creating it empty on first
// touch. Caller must hold mu.
func (s *CartService) sessionLocked(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{summary: domain.SummaryState{Status: domain.SummaryNone}}
		s.sessions[sessionID] = sess
	}
	return sess
}

// AddToCart merges productID into the session's cart: quantity +1 on an
// existing line, or a new line with quantity 1. Unknown products are
// accepted; existence is validated at pricing time.
func (s *CartService) AddToCart(sessionID string, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(sessionID)
	sess.cart.Add(productID)
	sess.summary = domain.SummaryState{Status: domain.SummaryNone}
}

// UpdateQuantity applies delta to the line's quantity, clamped to a
// minimum of 1. No-op when the session has no line for productID.
func (s *CartService) UpdateQuantity(sessionID string, productID int64, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(sessionID)
	sess.cart.UpdateQuantity(productID, delta)
	sess.summary = domain.SummaryState{Status: domain.SummaryNone}
}

// RemoveFromCart deletes the line for productID if present.
func (s *CartService) RemoveFromCart(sessionID string, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(sessionID)
	sess.cart.Remove(productID)
	sess.summary = domain.SummaryState{Status: domain.SummaryNone}
}

// ClearCart empties the session's cart and resets its membership flag.
func (s *CartService) ClearCart(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(sessionID)
	sess.cart.Clear()
	sess.summary = domain.SummaryState{Status: domain.SummaryNone}
}

// SetMembership records the caller-supplied membership claim for the
// session.
func (s *CartService) SetMembership(sessionID string, flag bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(sessionID)
	sess.cart.SetMember(flag)
	sess.summary = domain.SummaryState{Status: domain.SummaryNone}
}

// GetCart returns the session's lines joined with catalog display data,
// resolved at read time (prices are never cached from add time). Lines
// whose product has vanished from the catalog are returned without
// display data. The error is non-nil only when the catalog collaborator
// is unreachable.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	var (
		lines   []domain.OrderLine
		member  bool
		summary domain.SummaryState
	)
	if ok {
		lines = sess.cart.CloneLines()
		member = sess.cart.Member
		summary = sess.summary
	} else {
		summary = domain.SummaryState{Status: domain.SummaryNone}
	}
	s.mu.RUnlock()

	products, err := s.resolveProducts(ctx, lineIDs(lines))
	if err != nil {
		return CartView{}, err
	}

	view := CartView{
		Lines:   make([]CartLineView, 0, len(lines)),
		Member:  member,
		Summary: summary,
	}
	for _, line := range lines {
		lv := CartLineView{Line: line}
		if product, ok := products[line.ProductID]; ok {
			p := product
			lv.Product = &p
			lv.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		}
		view.Lines = append(view.Lines, lv)
	}
	return view, nil
}

// Checkout prices the session's cart as it stands. The cart itself is
// never modified, success or failure; the session's summary state moves
// to Ready or Failed unless a concurrent mutation already invalidated the
// attempt.
func (s *CartService) Checkout(ctx context.Context, sessionID string) (domain.PriceSummary, error) {
	s.mu.Lock()
	sess := s.sessionLocked(sessionID)
	lines := sess.cart.CloneLines()
	isMember := sess.cart.Member
	sess.summary = domain.SummaryState{Status: domain.SummaryPending}
	s.mu.Unlock()

	summary, err := s.Price(ctx, lines, isMember)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess = s.sessionLocked(sessionID)
	// A mutation that raced the calculation has already reset the state;
	// never resurrect a stale result over it.
	if sess.summary.Status == domain.SummaryPending {
		if err != nil {
			sess.summary = domain.SummaryState{Status: domain.SummaryFailed, Err: err}
		} else {
			result := summary
			sess.summary = domain.SummaryState{Status: domain.SummaryReady, Summary: &result}
		}
	}

	if err != nil {
		s.logger.Warn("checkout failed",
			zap.String("session", sessionID),
			zap.Error(err))
		return domain.PriceSummary{}, err
	}

	s.logger.Info("checkout priced",
		zap.String("session", sessionID),
		zap.Int("lines", len(lines)),
		zap.Bool("member", isMember),
		zap.String("final_price", summary.FinalPrice.String()))
	return summary, nil
}

// Price resolves the given lines against the catalog and runs the pricing
// engine. It touches no session state, so it also serves the stateless
// remote checkout boundary.
func (s *CartService) Price(ctx context.Context, lines []domain.OrderLine, isMember bool) (domain.PriceSummary, error) {
	products, err := s.resolveProducts(ctx, lineIDs(lines))
	if err != nil {
		return domain.PriceSummary{}, err
	}
	return s.pricing.Calculate(lines, isMember, products)
}

// resolveProducts is the read-through path: cache first, catalog for the
// misses, backfill the cache. A cache failure degrades to the catalog; a
// catalog failure is ErrCatalogUnavailable.
func (s *CartService) resolveProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if len(ids) == 0 {
		return map[int64]domain.Product{}, nil
	}

	resolved, missing, err := s.cache.GetProducts(ctx, ids)
	if err != nil {
		s.logger.Warn("product cache read failed, falling back to catalog", zap.Error(err))
		resolved, missing = make(map[int64]domain.Product, len(ids)), ids
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	fromCatalog, err := s.catalog.GetProducts(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	backfill := make([]domain.Product, 0, len(fromCatalog))
	for id, product := range fromCatalog {
		resolved[id] = product
		backfill = append(backfill, product)
	}
	if len(backfill) > 0 {
		if err := s.cache.SetProducts(ctx, backfill); err != nil {
			s.logger.Warn("product cache backfill failed", zap.Error(err))
		}
	}
	return resolved, nil
}

func lineIDs(lines []domain.OrderLine) []int64 {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
