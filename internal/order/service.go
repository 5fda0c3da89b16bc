// Package order implements the order orchestration core: creation against
// live product availability, the cancellation policy, status updates and
// ownership-scoped reads.
package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service orchestrates order operations across the repository and the
// product gateway. Both collaborators are injected; there is no package
// state.
type Service struct {
	repo    Repository
	gateway Gateway
	log     *logrus.Logger
}

func NewService(repo Repository, gateway Gateway, log *logrus.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, log: log}
}

// CreateOrder validates the request, resolves every item against the product
// service one at a time in caller order, persists the order, then decrements
// stock best-effort.
//
// Failure semantics, in phase order:
//   - bad input            -> *ValidationError, nothing touched
//   - item unavailable     -> *UnavailableError for the FIRST failing item,
//     nothing persisted, no stock touched
//   - gateway failure      -> *DependencyError, order not created
//   - persistence failure  -> *PersistenceError
//   - stock decrement fail -> logged and skipped; the order stands. Stock
//     adjustment is not transactional with persistence and a decrement that
//     is lost here leaves stock overstated until reconciled out of band.
func (s *Service) CreateOrder(ctx context.Context, ownerID string, req CreateOrderRequest) (*Order, error) {
	if ownerID == "" {
		return nil, &ValidationError{Msg: "owner id is required"}
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Msg: "order must have at least one item"}
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, &ValidationError{Msg: "invalid item: product_id and quantity are required"}
		}
	}

	items := make([]LineItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		av, err := s.gateway.CheckAvailability(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, &DependencyError{Op: "check availability", Err: err}
		}
		if !av.Available {
			return nil, &UnavailableError{
				ProductID:         it.ProductID,
				AvailableStock:    av.Stock,
				RequestedQuantity: it.Quantity,
			}
		}

		p, err := s.gateway.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, &DependencyError{Op: "fetch product", Err: err}
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, LineItem{
			ProductID:   it.ProductID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    it.Quantity,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	o := &Order{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		Items:           items,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, &PersistenceError{Op: "create order", Err: err}
	}

	// Best-effort stock reservation: each decrement is independent and a
	// failure never rolls back the order or stops the remaining decrements.
	for _, it := range items {
		if err := s.gateway.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"product_id": it.ProductID,
			}).WithError(err).Error("failed to update stock")
		}
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "user_id": ownerID}).Info("order created")
	return o, nil
}

// CancelOrder cancels an order owned by ownerID. Stock restore runs
// best-effort BEFORE the status flip, per item; a restore failure neither
// blocks the cancellation nor the remaining restores.
func (s *Service) CancelOrder(ctx context.Context, id, ownerID string) (*Order, error) {
	o, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if err := CanCancel(o.Status); err != nil {
		return nil, err
	}

	for _, it := range o.Items {
		if err := s.gateway.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"product_id": it.ProductID,
			}).WithError(err).Error("failed to restore stock")
		}
	}

	o.Status = StatusCancelled
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, wrapUpdateErr(err)
	}

	s.log.WithField("order_id", o.ID).Info("order cancelled")
	return o, nil
}

// UpdateStatus sets the order's status to any defined value, without walking
// the transition graph: pending -> delivered directly is legal here. Only
// the cancel path is policed; this permissiveness is intentional.
func (s *Service) UpdateStatus(ctx context.Context, id, ownerID, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	o.Status = st
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, wrapUpdateErr(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "status": st}).Info("order status updated")
	return o, nil
}

// GetOrder returns the order if it exists and belongs to ownerID.
func (s *Service) GetOrder(ctx context.Context, id, ownerID string) (*Order, error) {
	return s.findOwned(ctx, id, ownerID)
}

// ListOrders returns the owner's orders, newest first, with the total count
// for pagination.
func (s *Service) ListOrders(ctx context.Context, ownerID string, f ListFilter) ([]Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, &ValidationError{Msg: "invalid order status: " + string(f.Status)}
	}
	orders, total, err := s.repo.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list orders", Err: err}
	}
	return orders, total, nil
}

func (s *Service) findOwned(ctx context.Context, id, ownerID string) (*Order, error) {
	if id == "" || ownerID == "" {
		return nil, &ValidationError{Msg: "order id and owner id are required"}
	}
	o, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "find order", Err: err}
	}
	return o, nil
}

func wrapUpdateErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return &PersistenceError{Op: "update order", Err: err}
}
