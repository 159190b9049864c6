package application

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bookverse/order-intake/internal/clock"
	"github.com/bookverse/order-intake/internal/conflict"
	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/fraud"
	"github.com/bookverse/order-intake/internal/logger"
)

type OrderRepo interface {
	AddOrder(ctx context.Context, o *domain.Order, res domain.Result) error
	GetResultById(ctx context.Context, id uuid.UUID) (*domain.Result, error)
}

type OutcomePublisher interface {
	PublishResult(ctx context.Context, res domain.Result) error
}

// IntakeService coordinates one checkout submission through fraud
// classification and conflict registration and combines the outcomes.
type IntakeService struct {
	classifier *fraud.Classifier
	detector   *conflict.Detector
	repo       OrderRepo
	publisher  OutcomePublisher
	clock      clock.Clock

	seq atomic.Uint64

	mu   sync.RWMutex
	byID map[uuid.UUID]*domain.Result
}

func NewIntakeService(cl *fraud.Classifier, det *conflict.Detector, repo OrderRepo, pub OutcomePublisher, clk clock.Clock) *IntakeService {
	return &IntakeService{
		classifier: cl,
		detector:   det,
		repo:       repo,
		publisher:  pub,
		clock:      clk,
		byID:       make(map[uuid.UUID]*domain.Result),
	}
}

// Submit runs both classifiers for one order and returns the combined
// result. Fraud and conflict are evaluated concurrently; both always
// complete before a result is reported, so every returned order carries a
// definite verdict on both dimensions. A conflict slot granted to an order
// later found fraudulent stays consumed.
//
// Validation errors and inventory collaborator failures return an error
// instead of a result; fraud and conflict rejections are normal results,
// never errors.
func (s *IntakeService) Submit(ctx context.Context, in domain.OrderInput) (domain.Result, error) {
	if err := in.Validate(); err != nil {
		return domain.Result{}, err
	}

	order := &domain.Order{
		OrderID:        uuid.New(),
		Seq:            s.seq.Add(1),
		ResourceID:     in.ResourceID,
		Customer:       in.Customer,
		Billing:        in.Billing,
		Payment:        in.Payment,
		ShippingMethod: in.ShippingMethod,
		SubmittedAt:    s.clock.Now(),
	}

	var (
		verdict domain.FraudVerdict
		reason  string
		outcome domain.ConflictOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		verdict, reason = s.classifier.Classify(*order)
		return nil
	})
	g.Go(func() error {
		var err error
		outcome, err = s.detector.Register(gctx, *order)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Result{}, err
	}

	res := domain.Result{
		OrderID:     order.OrderID,
		ResourceID:  order.ResourceID,
		Fraud:       verdict,
		FraudReason: reason,
		Conflict:    outcome,
		FinalStatus: domain.Finalize(verdict, outcome),
	}

	// The outcome is decided at this point; audit persistence and event
	// publishing must not change it.
	if s.repo != nil {
		if err := s.repo.AddOrder(ctx, order, res); err != nil {
			logger.Warn("failed to persist order audit", "order_id", order.OrderID, "err", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, res); err != nil {
			logger.Warn("failed to publish outcome", "order_id", order.OrderID, "err", err)
		}
	}

	s.mu.Lock()
	s.byID[order.OrderID] = &res
	s.mu.Unlock()

	return res, nil
}

// GetByID serves from the in-memory result cache first and falls back to
// the repository.
func (s *IntakeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	s.mu.RLock()
	if r, ok := s.byID[id]; ok {
		s.mu.RUnlock()
		return r, nil
	}
	s.mu.RUnlock()

	if s.repo == nil {
		return nil, nil
	}

	r, err := s.repo.GetResultById(ctx, id)
	if err != nil {
		logger.Warn("failed to load order result", "order_id", id, "err", err)
		return nil, err
	}
	if r == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.byID[id] = r
	s.mu.Unlock()
	return r, nil
}
