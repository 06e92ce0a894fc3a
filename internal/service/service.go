package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"laundryops/internal/delivery"
	"laundryops/internal/domain"
	"laundryops/internal/events"
	"laundryops/internal/pricing"
	"laundryops/internal/store"
	"laundryops/internal/timeline"
	"laundryops/internal/xid"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

// ProcessableStatus is the only status an intake order may be processed from.
const ProcessableStatus = domain.StageArrivedAtOutlet

// ValidationErrors maps a field path (e.g. "items.0.quantity") to a message.
// errors.Is(err, ErrValidation) holds for any ValidationErrors value.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	estimator *delivery.Estimator
	publisher events.Publisher
	now       func() time.Time
	log       *slog.Logger
}

func New(repo store.Repository, estimator *delivery.Estimator, publisher events.Publisher) *Service {
	if estimator == nil {
		estimator = delivery.NewEstimator(nil, 0)
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &Service{
		repo:      repo,
		estimator: estimator,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		log:       slog.With("component", "service"),
	}
}

func (s *Service) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.repo.ListCatalogItems(ctx)
}

// PreviewPricing runs the full processing computation without persisting it,
// so the processing form can show totals while the operator edits. Invalid
// items do not fail the preview: the quote carries the partial totals with
// Pricing.IsValid unset and the per-field errors.
func (s *Service) PreviewPricing(ctx context.Context, orderID string, req domain.ProcessOrderRequest) (domain.OrderQuote, error) {
	order, err := s.adminOrder(ctx, orderID)
	if err != nil {
		return domain.OrderQuote{}, err
	}
	quote, err := s.quote(ctx, order, req)
	var fields ValidationErrors
	if errors.As(err, &fields) {
		return quote, nil
	}
	return quote, err
}

func (s *Service) ProcessOrder(ctx context.Context, orderID string, req domain.ProcessOrderRequest) (domain.ProcessOrderResponse, error) {
	order, err := s.adminOrder(ctx, orderID)
	if err != nil {
		return domain.ProcessOrderResponse{}, err
	}
	if order.Status != ProcessableStatus {
		return domain.ProcessOrderResponse{}, store.ErrOrderNotProcessable
	}
	quote, err := s.quote(ctx, order, req)
	if err != nil {
		return domain.ProcessOrderResponse{}, err
	}

	actor, _ := ActorFromContext(ctx)
	processedAt := s.now()

	update := *order
	update.Items = slices.Clone(req.Items)
	update.Status = domain.StageReadyForWashing
	update.TotalWeightKg = quote.Pricing.TotalWeightKg
	update.LaundryPrice = quote.Pricing.LaundrySubtotal
	update.DeliveryFee = 0
	update.DistanceKm = 0
	if quote.Delivery.IsAvailable() {
		update.DeliveryFee = quote.Delivery.Fee
		update.DistanceKm = quote.Delivery.DistanceKm
	}
	update.TotalPrice = quote.PayableTotal
	update.TotalIsPartial = quote.TotalIsPartial
	update.ProcessedBy = actor.Username
	update.ProcessedAt = &processedAt

	saved, err := s.repo.SaveProcessedOrder(ctx, update, ProcessableStatus)
	if err != nil {
		return domain.ProcessOrderResponse{}, err
	}

	s.logAudit(ctx, saved.OutletID, "order_process", "order", saved.ID, fmt.Sprintf(
		"laundry=%d,delivery=%d,total=%d,partial=%t,weight=%.2f",
		saved.LaundryPrice, saved.DeliveryFee, saved.TotalPrice, saved.TotalIsPartial, saved.TotalWeightKg,
	))

	event := domain.OrderProcessedEvent{
		OrderID:        saved.ID,
		OutletID:       saved.OutletID,
		LaundryPrice:   saved.LaundryPrice,
		DeliveryFee:    saved.DeliveryFee,
		TotalPrice:     saved.TotalPrice,
		TotalIsPartial: saved.TotalIsPartial,
		ProcessedBy:    actor.Username,
		ProcessedAt:    processedAt,
	}
	if err := s.publisher.PublishOrderProcessed(ctx, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish order event", "order_id", saved.ID, "error", err)
	}

	return domain.ProcessOrderResponse{
		OrderQuote:  quote,
		Status:      saved.Status,
		ProcessedAt: processedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) adminOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOutletAdmin(ctx, order.OutletID); err != nil {
		return nil, err
	}
	return order, nil
}

// quote prices the submitted items and adds the delivery fee. When delivery
// is unavailable the payable total is the laundry subtotal alone and is
// flagged partial. Invalid items still produce a complete quote alongside
// the ValidationErrors.
func (s *Service) quote(ctx context.Context, order *domain.Order, req domain.ProcessOrderRequest) (domain.OrderQuote, error) {
	var (
		outlet  *domain.Outlet
		catalog []domain.CatalogItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outlet, err = s.repo.GetOutlet(gctx, order.OutletID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.repo.ListCatalogItems(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.OrderQuote{}, err
	}

	result := pricing.Price(req.Items, req.TotalWeightKg, catalog)
	estimate, within := s.estimate(ctx, order, outlet)
	quote := domain.OrderQuote{
		OrderID:             order.ID,
		Pricing:             result,
		Delivery:            estimate,
		WithinServiceRadius: within,
		PayableTotal:        result.LaundrySubtotal,
		TotalIsPartial:      !estimate.IsAvailable(),
	}
	if estimate.IsAvailable() {
		quote.PayableTotal += estimate.Fee
	}
	if !result.IsValid {
		return quote, ValidationErrors(result.ValidationErrors)
	}
	return quote, nil
}

func (s *Service) DeliveryEstimate(ctx context.Context, orderID string) (domain.DeliveryEstimateResponse, error) {
	order, err := s.adminOrder(ctx, orderID)
	if err != nil {
		return domain.DeliveryEstimateResponse{}, err
	}
	outlet, err := s.repo.GetOutlet(ctx, order.OutletID)
	if err != nil {
		return domain.DeliveryEstimateResponse{}, err
	}

	estimate, within := s.estimate(ctx, order, outlet)
	return domain.DeliveryEstimateResponse{
		OrderID:             order.ID,
		Estimate:            estimate,
		WithinServiceRadius: within,
	}, nil
}

// estimate returns the fee estimate and, when both locations are known, the
// service-radius eligibility reported next to it.
func (s *Service) estimate(ctx context.Context, order *domain.Order, outlet *domain.Outlet) (domain.DeliveryEstimate, *bool) {
	estimate := s.estimator.Estimate(ctx, outlet.ID, order.CustomerLocation, outlet.Delivery)
	within, err := delivery.WithinServiceRadius(order.CustomerLocation, outlet.Delivery)
	if err != nil {
		return estimate, nil
	}
	return estimate, &within
}

func (s *Service) OrderTimeline(ctx context.Context, orderID string) (domain.OrderTimelineResponse, error) {
	var (
		order   *domain.Order
		records []domain.WorkProcessRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = s.repo.GetOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.repo.ListWorkProcesses(gctx, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.OrderTimelineResponse{}, err
	}
	if err := authorizeOrderViewer(ctx, order); err != nil {
		return domain.OrderTimelineResponse{}, err
	}

	history := timeline.Events(timeline.Pipeline, records, order.CreatedAt)
	return domain.OrderTimelineResponse{
		OrderID:        order.ID,
		CurrentStatus:  order.Status,
		Timeline:       timeline.Reconstruct(timeline.Pipeline, records, order.CreatedAt, order.Status),
		RecentActivity: timeline.RecentActivity(history),
	}, nil
}

func authorizeOutletAdmin(ctx context.Context, outletID string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrForbidden
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return nil
	case domain.RoleOutletAdmin:
		if actor.OutletID == outletID {
			return nil
		}
	}
	return ErrForbidden
}

// authorizeOrderViewer lets staff bound to an outlet see only that outlet's
// orders and customers only the orders they placed.
func authorizeOrderViewer(ctx context.Context, order *domain.Order) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrForbidden
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return nil
	case domain.RoleCustomer:
		if actor.Username != "" && actor.Username == order.CustomerUsername {
			return nil
		}
	case domain.RoleOutletAdmin, domain.RoleWorker, domain.RoleDriver:
		if actor.OutletID == order.OutletID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) logAudit(ctx context.Context, outletID string, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		OutletID:      outletID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}); err != nil {
		s.log.WarnContext(ctx, "failed to write audit log", "action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}
