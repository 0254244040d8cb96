package payment

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-inventory/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	webhookService = "payment-webhook"
	useCaseWebhook = "payment.webhook"

	ResultProcessed = "processed"
	ResultIgnored   = "ignored"

	ReasonDuplicate = "duplicate_event"

	// webhook_events_total{result}
	resultRejected  = "rejected"
	resultDuplicate = "duplicate"
	resultStale     = "stale"
	resultUnhandled = "unhandled"
	resultFailed    = "error"
	eventTypeOther  = "other"
)

// Delivery is one raw webhook request as received.
type Delivery struct {
	Body      []byte
	Signature string
}

// Result is the acknowledgement returned to the payment provider.
type Result struct {
	Status    string          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	OrderID   int64           `json:"order_id,omitempty"`
	NewStatus domorder.Status `json:"new_status,omitempty"`
}

// Verifier authenticates payment webhooks, drops replays and applies
// successful payments to the order ledger.
type Verifier struct {
	secret    []byte
	guard     domain.ReplayGuard
	uow       application.UnitOfWork
	publisher application.Publisher
	in        application.Instrument
	events    observability.Counter
}

var _ application.UseCase[Delivery, *Result] = (*Verifier)(nil)

func NewVerifier(
	secret []byte,
	guard domain.ReplayGuard,
	uow application.UnitOfWork,
	publisher application.Publisher,
	tel observability.Observability,
) *Verifier {
	tel = observability.OrNop(tel)
	return &Verifier{
		secret:    append([]byte(nil), secret...),
		guard:     guard,
		uow:       uow,
		publisher: publisher,
		in:        application.NewInstrument(tel, webhookService),
		events:    tel.Metrics().Counter(observability.MWebhookEvents),
	}
}

// Execute checks the signature before reading the payload. A delivery is
// claimed in the replay guard before it is applied; the claim is released
// again when processing fails so the provider's retry is not dropped.
func (v *Verifier) Execute(ctx context.Context, d Delivery) (_ *Result, err error) {
	ctx, run := v.in.Start(ctx, useCaseWebhook, "PaymentWebhook")
	defer func() { run.End(err) }()

	if err := domain.VerifySignature(v.secret, d.Body, d.Signature); err != nil {
		v.count(eventTypeOther, resultRejected)
		return nil, err
	}

	n, err := domain.ParseNotification(d.Body)
	if err != nil {
		v.count(eventTypeOther, resultRejected)
		return nil, err
	}
	eventLabel := eventTypeLabel(n.EventType)
	ctx = logctx.Enrich(ctx, run.Logger(),
		observability.F("order_id", n.OrderID),
		observability.F("payment_id", n.PaymentID),
	)
	run.With("event_type", n.EventType)
	run.With("order_id", n.OrderID)
	run.With("payment_id", n.PaymentID)
	run.Span().SetAttributes(
		attribute.String("webhook.event_type", n.EventType),
		attribute.String("payment.id", n.PaymentID),
		attribute.Int64("order.id", n.OrderID),
	)

	key := n.DedupKey()
	first, err := v.guard.Claim(ctx, key)
	if err != nil {
		v.count(eventLabel, resultFailed)
		return nil, fmt.Errorf("payment: claim %s: %w", key, err)
	}
	if !first {
		run.Status("DUPLICATE")
		v.count(eventLabel, resultDuplicate)
		return &Result{Status: ResultIgnored, Reason: ReasonDuplicate, OrderID: n.OrderID}, nil
	}

	if n.EventType != domain.EventPaymentSucceeded {
		run.Status("UNHANDLED")
		v.count(eventLabel, resultUnhandled)
		return &Result{Status: ResultIgnored, Reason: "Unhandled event type: " + n.EventType}, nil
	}

	res, err := v.markPaid(ctx, n)
	if err != nil {
		if rerr := v.guard.Release(ctx, key); rerr != nil {
			run.Logger().Warn("replay_release_failed",
				observability.F("key", key),
				observability.F("error", rerr.Error()),
			)
		}
		v.count(eventLabel, resultFailed)
		return nil, err
	}
	if res.Status == ResultIgnored {
		run.Status("ORDER_NOT_PENDING")
		v.count(eventLabel, resultStale)
		return res, nil
	}
	v.count(eventLabel, ResultProcessed)
	return res, nil
}

func (v *Verifier) markPaid(ctx context.Context, n *domain.Notification) (*Result, error) {
	var (
		res    *Result
		events []application.Event
	)
	err := v.uow.Atomic(ctx, func(tx application.Tx) error {
		o, err := tx.Orders().Get(ctx, n.OrderID)
		if err != nil {
			return err
		}
		if o.Status != domorder.StatusPending {
			res = &Result{
				Status: ResultIgnored,
				Reason: fmt.Sprintf("Order status is %s, expected PENDING", o.Status),
			}
			return nil
		}
		events, err = apporder.Transition(ctx, tx, o, domorder.StatusPaid, domorder.SourceWebhook)
		if err != nil {
			return err
		}
		res = &Result{Status: ResultProcessed, OrderID: o.ID, NewStatus: o.Status}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("payment: mark order %d paid: %w", n.OrderID, err)
	}

	_ = v.in.Publish(ctx, v.publisher, events...)
	return res, nil
}

func (v *Verifier) count(eventType, result string) {
	v.events.Add(1,
		observability.L("event_type", eventType),
		observability.L("result", result),
	)
}

// eventTypeLabel keeps provider-controlled strings out of metric labels.
func eventTypeLabel(t string) string {
	if t == domain.EventPaymentSucceeded {
		return t
	}
	return eventTypeOther
}
