package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/usecase"

	"go.uber.org/zap"
)

type MailSender interface {
	Send(to string, subject string, plain string, html string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// 注文確定後の通知をメールとKafkaに流す。
// 失敗はログに出して捨てる（注文は巻き戻さない）
type Dispatcher struct {
	mail   MailSender
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

var _ usecase.OrderNotifier = (*Dispatcher)(nil)

// mail/eventsはnilなら送らない
func NewDispatcher(mail MailSender, events EventPublisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{mail: mail, events: events, log: log, now: time.Now}
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, o usecase.OrderOutput, email string) {
	d.publish(ctx, EventOrderPlaced, o)
	d.send(email, fmt.Sprintf("Order %s received", o.OrderNumber), orderBody("Thank you for your order.", o), o)
}

func (d *Dispatcher) OrderStatusChanged(ctx context.Context, o usecase.OrderOutput, email string) {
	d.publish(ctx, EventOrderStatusChanged, o)
	d.send(email, fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status), orderBody(fmt.Sprintf("Your order status changed to %s.", o.Status), o), o)
}

func (d *Dispatcher) PaymentCompleted(ctx context.Context, o usecase.OrderOutput, email string) {
	d.publish(ctx, EventPaymentCompleted, o)
	d.send(email, fmt.Sprintf("Payment received for order %s", o.OrderNumber), orderBody("We have received your payment in full.", o), o)
}

func (d *Dispatcher) publish(ctx context.Context, t EventType, o usecase.OrderOutput) {
	if d.events == nil {
		return
	}
	ev := OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		GrandTotal:  o.GrandTotal,
		OccurredAt:  d.now().UTC(),
	}
	if err := d.events.Publish(ctx, ev); err != nil {
		d.log.Error("order event publish failed",
			zap.String("type", string(t)),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) send(to string, subject string, body string, o usecase.OrderOutput) {
	if d.mail == nil || strings.TrimSpace(to) == "" {
		return
	}
	if err := d.mail.Send(to, subject, body, ""); err != nil {
		d.log.Error("order mail failed",
			zap.String("order_number", o.OrderNumber),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func orderBody(lead string, o usecase.OrderOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", lead)
	fmt.Fprintf(&b, "Order: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status: %s / %s\n\n", o.Status, o.PaidStatus)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d  %s\n", it.Name, it.Quantity, it.TotalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.OrderAmount.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", o.ShippingCharge.StringFixed(2))
	if o.CouponDiscount.IsPositive() {
		fmt.Fprintf(&b, "Coupon: -%s\n", o.CouponDiscount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n", o.GrandTotal.StringFixed(2))
	fmt.Fprintf(&b, "Due: %s\n", o.DueAmount.StringFixed(2))
	return b.String()
}
