//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
)

func TestUsageCachedWithinTTL(t *testing.T) {
	t.Parallel()

	calls := 0
	backend := &fakeBackend{
		usageFn: func(ctx context.Context) (model.UsageReport, error) {
			calls++
			return model.UsageReport{VideosRemaining: 3, FetchedAt: time.Now()}, nil
		},
	}
	uc := NewBillingUseCase(backend, testLogger())

	for i := 0; i < 3; i++ {
		u, err := uc.Usage(context.Background())
		if err != nil || u.VideosRemaining != 3 {
			t.Fatalf("Usage: %+v, %v", u, err)
		}
	}
	if calls != 1 {
		t.Fatalf("backend hit %d times inside the cache window", calls)
	}
}

func TestUsageCacheExpires(t *testing.T) {
	t.Parallel()

	now := time.Now()
	calls := 0
	backend := &fakeBackend{
		usageFn: func(ctx context.Context) (model.UsageReport, error) {
			calls++
			return model.UsageReport{FetchedAt: now}, nil
		},
	}
	uc := NewBillingUseCase(backend, testLogger())
	uc.now = func() time.Time { return now }

	if _, err := uc.Usage(context.Background()); err != nil {
		t.Fatal(err)
	}
	uc.now = func() time.Time { return now.Add(usageCacheTTL + time.Second) }
	if _, err := uc.Usage(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expired cache not refetched, calls = %d", calls)
	}
}

func TestInvalidateUsageForcesRefetch(t *testing.T) {
	t.Parallel()

	calls := 0
	backend := &fakeBackend{
		usageFn: func(ctx context.Context) (model.UsageReport, error) {
			calls++
			return model.UsageReport{VideosRemaining: calls, FetchedAt: time.Now()}, nil
		},
	}
	uc := NewBillingUseCase(backend, testLogger())

	if _, err := uc.Usage(context.Background()); err != nil {
		t.Fatal(err)
	}
	uc.InvalidateUsage()
	u, err := uc.Usage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if u.VideosRemaining != 2 {
		t.Fatalf("invalidate did not force a fresh read: %+v", u)
	}
}

func TestCheckoutValidation(t *testing.T) {
	t.Parallel()

	uc := NewBillingUseCase(&fakeBackend{}, testLogger())

	if _, err := uc.Checkout(context.Background(), "", model.CycleMonthly); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty plan = %v", err)
	}
	if _, err := uc.Checkout(context.Background(), "pro", "weekly"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("bad cycle = %v", err)
	}
	cs, err := uc.Checkout(context.Background(), "pro", model.CycleYearly)
	if err != nil || cs.CheckoutURL == "" {
		t.Fatalf("Checkout: %+v, %v", cs, err)
	}
}
