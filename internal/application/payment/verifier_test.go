package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-inventory/internal/application/order"
	domcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
	domorder "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("whsec_test")

type fixture struct {
	store    *memory.Store
	guard    *memory.ReplayGuard
	verifier *Verifier
}

func newFixture() *fixture {
	store := memory.NewStore()
	guard := memory.NewReplayGuard(time.Hour, 1000)
	return &fixture{
		store:    store,
		guard:    guard,
		verifier: NewVerifier(secret, guard, store, nil, nil),
	}
}

func (f *fixture) pendingOrder(t *testing.T) *domorder.Order {
	t.Helper()
	ctx := context.Background()
	var o *domorder.Order
	err := f.store.Atomic(ctx, func(tx application.Tx) error {
		id, err := tx.Products().NextID(ctx)
		if err != nil {
			return err
		}
		p, err := domcatalog.NewProduct(id, domcatalog.NewProductInput{
			SKU: fmt.Sprintf("SKU-%d", id), Name: "n", Price: decimal.NewFromInt(1), Stock: 5,
		})
		if err != nil {
			return err
		}
		if err := tx.Products().Insert(ctx, p); err != nil {
			return err
		}
		o, err = apporder.Create(ctx, tx, p.ID, 1)
		return err
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) status(t *testing.T, id int64) domorder.Status {
	t.Helper()
	ctx := context.Background()
	var s domorder.Status
	require.NoError(t, f.store.View(ctx, func(tx application.Tx) error {
		o, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		s = o.Status
		return nil
	}))
	return s
}

func signed(body string) Delivery {
	return Delivery{Body: []byte(body), Signature: domain.Sign(secret, []byte(body))}
}

func succeeded(orderID int64, paymentID string) string {
	return fmt.Sprintf(`{"event_type":"payment.succeeded","order_id":%d,"payment_id":%q,"amount":10.00,"timestamp":"2024-05-01T10:00:00Z"}`, orderID, paymentID)
}

func TestVerifierMarksOrderPaid(t *testing.T) {
	f := newFixture()
	o := f.pendingOrder(t)

	res, err := f.verifier.Execute(context.Background(), signed(succeeded(o.ID, "pay_1")))
	require.NoError(t, err)
	assert.Equal(t, &Result{Status: ResultProcessed, OrderID: o.ID, NewStatus: domorder.StatusPaid}, res)
	assert.Equal(t, domorder.StatusPaid, f.status(t, o.ID))
}

func TestVerifierDropsReplays(t *testing.T) {
	f := newFixture()
	o := f.pendingOrder(t)
	d := signed(succeeded(o.ID, "pay_1"))

	_, err := f.verifier.Execute(context.Background(), d)
	require.NoError(t, err)

	res, err := f.verifier.Execute(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, res.Status)
	assert.Equal(t, ReasonDuplicate, res.Reason)
	assert.Equal(t, o.ID, res.OrderID)
	assert.Equal(t, domorder.StatusPaid, f.status(t, o.ID))
}

func TestVerifierConcurrentDeliveriesApplyOnce(t *testing.T) {
	f := newFixture()
	o := f.pendingOrder(t)
	d := signed(succeeded(o.ID, "pay_1"))

	var processed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.verifier.Execute(context.Background(), d)
			if err == nil && res.Status == ResultProcessed {
				processed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), processed.Load())
}

func TestVerifierRejectsBadSignatures(t *testing.T) {
	f := newFixture()
	o := f.pendingOrder(t)
	body := succeeded(o.ID, "pay_1")

	_, err := f.verifier.Execute(context.Background(), Delivery{Body: []byte(body)})
	assert.ErrorIs(t, err, domainerr.ErrUnauthenticated)

	_, err = f.verifier.Execute(context.Background(), Delivery{
		Body:      []byte(body),
		Signature: domain.Sign([]byte("wrong"), []byte(body)),
	})
	assert.ErrorIs(t, err, domainerr.ErrForbidden)

	assert.Equal(t, domorder.StatusPending, f.status(t, o.ID))
	assert.Zero(t, f.guard.Len(), "rejected deliveries must not be remembered")
}

func TestVerifierRejectsMalformedPayload(t *testing.T) {
	f := newFixture()
	_, err := f.verifier.Execute(context.Background(), signed(`{"event_type":"payment.succeeded"}`))
	assert.ErrorIs(t, err, domainerr.ErrValidation)
}

func TestVerifierUnknownOrderReleasesClaim(t *testing.T) {
	f := newFixture()
	d := signed(succeeded(77, "pay_1"))

	_, err := f.verifier.Execute(context.Background(), d)
	require.ErrorIs(t, err, domorder.ErrNotFound)
	assert.Zero(t, f.guard.Len())

	// The retry is processed, not treated as a duplicate.
	_, err = f.verifier.Execute(context.Background(), d)
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestVerifierIgnoresNonPendingOrders(t *testing.T) {
	f := newFixture()
	o := f.pendingOrder(t)
	_, err := f.verifier.Execute(context.Background(), signed(succeeded(o.ID, "pay_1")))
	require.NoError(t, err)

	res, err := f.verifier.Execute(context.Background(), signed(succeeded(o.ID, "pay_2")))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, res.Status)
	assert.Equal(t, "Order status is PAID, expected PENDING", res.Reason)
}

func TestVerifierIgnoresUnhandledEvents(t *testing.T) {
	f := newFixture()
	o := f.pendingOrder(t)
	body := fmt.Sprintf(`{"event_type":"payment.refunded","order_id":%d,"payment_id":"pay_1"}`, o.ID)

	res, err := f.verifier.Execute(context.Background(), signed(body))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, res.Status)
	assert.Equal(t, "Unhandled event type: payment.refunded", res.Reason)
	assert.Equal(t, domorder.StatusPending, f.status(t, o.ID))
}

type failingGuard struct{}

func (failingGuard) Claim(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
func (failingGuard) Release(context.Context, string) error { return nil }

func TestVerifierGuardFailureIsInternal(t *testing.T) {
	store := memory.NewStore()
	v := NewVerifier(secret, failingGuard{}, store, nil, nil)

	_, err := v.Execute(context.Background(), signed(succeeded(1, "pay_1")))
	require.Error(t, err)
	_, isDomain := domainerr.Detail(err)
	assert.False(t, isDomain)
}
