//go:build !integration

package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creator-analytics-client/internal/domain/model"

	"github.com/rs/zerolog"
)

type stubBilling struct{ invalidated int }

func (s *stubBilling) Usage(ctx context.Context) (model.UsageReport, error) {
	return model.UsageReport{}, nil
}
func (s *stubBilling) InvalidateUsage()                                { s.invalidated++ }
func (s *stubBilling) Plans(ctx context.Context) ([]model.Plan, error) { return nil, nil }
func (s *stubBilling) Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error) {
	return model.CheckoutSession{}, nil
}

func TestReturnInvalidatesUsageCache(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	billing := &stubBilling{}
	rs := NewReturnServer(0, "/billing/return", billing, &logger)

	srv := httptest.NewServer(rs.server.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/billing/return?transaction_id=txn-9&status=success")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Checkout Complete") {
		t.Fatalf("unexpected page: %s", body)
	}
	if !strings.Contains(string(body), "txn-9") {
		t.Fatalf("transaction reference missing from page")
	}
	if billing.invalidated != 1 {
		t.Fatalf("usage cache invalidated %d times", billing.invalidated)
	}
}
