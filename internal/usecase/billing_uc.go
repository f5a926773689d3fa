// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BillingUseCase = (*billingUC)(nil)

// BillingUseCase fronts the backend billing reads. Usage carries a short
// memory cache so repeated view mounts don't hammer the backend; the
// return listener invalidates it when the user comes back from checkout.
type BillingUseCase interface {
	Usage(ctx context.Context) (model.UsageReport, error)
	InvalidateUsage()
	Plans(ctx context.Context) ([]model.Plan, error)
	Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error)
}

const usageCacheTTL = 15 * time.Second

type billingUC struct {
	backend adapter.AnalyticsBackend
	now     func() time.Time
	log     *zerolog.Logger

	mu     sync.Mutex
	cached *model.UsageReport
}

func NewBillingUseCase(backend adapter.AnalyticsBackend, logger *zerolog.Logger) *billingUC {
	compLog := logger.With().Str("component", "BillingUC").Logger()
	return &billingUC{backend: backend, now: time.Now, log: &compLog}
}

func (b *billingUC) Usage(ctx context.Context) (model.UsageReport, error) {
	b.mu.Lock()
	if b.cached != nil && b.now().Sub(b.cached.FetchedAt) < usageCacheTTL {
		u := *b.cached
		b.mu.Unlock()
		return u, nil
	}
	b.mu.Unlock()

	u, err := b.backend.Usage(ctx)
	if err != nil {
		return model.UsageReport{}, err
	}
	b.mu.Lock()
	b.cached = &u
	b.mu.Unlock()
	return u, nil
}

func (b *billingUC) InvalidateUsage() {
	b.mu.Lock()
	b.cached = nil
	b.mu.Unlock()
}

func (b *billingUC) Plans(ctx context.Context) ([]model.Plan, error) {
	return b.backend.Plans(ctx)
}

func (b *billingUC) Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error) {
	if planID == "" {
		return model.CheckoutSession{}, fmt.Errorf("%w: plan id empty", domain.ErrInvalidArgument)
	}
	if cycle != model.CycleMonthly && cycle != model.CycleYearly {
		return model.CheckoutSession{}, fmt.Errorf("%w: billing cycle %q", domain.ErrInvalidArgument, cycle)
	}
	cs, err := b.backend.Checkout(ctx, planID, cycle)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	b.log.Info().Str("plan_id", planID).Str("transaction_id", cs.TransactionID).Msg("checkout initiated")
	return cs, nil
}
