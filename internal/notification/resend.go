package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"

	resend "github.com/resend/resend-go/v3"
)

const sendTimeout = 10 * time.Second

// ResendNotifier はResend APIでメールを送る実装。
// 各メソッドはgoroutineで送って即座に戻る。リクエストのctxには
// ぶら下げない（レスポンス後にキャンセルされるので）。
type ResendNotifier struct {
	client *resend.Client
	from   string
}

func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (n *ResendNotifier) OrderConfirmation(to string, order model.Order) {
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
	body := fmt.Sprintf(
		"Thank you for your order!\n\n"+
			"Order number: %s\n"+
			"Total: Rs. %d\n"+
			"Payment method: %s\n\n"+
			"We will notify you when your order ships.\n",
		order.OrderNumber, order.TotalAmount, order.PaymentMethod,
	)
	n.send(to, subject, body, order.OrderNumber)
}

func (n *ResendNotifier) OrderStatusUpdate(to string, order model.Order, newStatus model.OrderStatus) {
	subject := fmt.Sprintf("Order %s is now %s", order.OrderNumber, newStatus)
	body := fmt.Sprintf(
		"Your order %s has been updated.\n\n"+
			"New status: %s\n",
		order.OrderNumber, newStatus,
	)
	n.send(to, subject, body, order.OrderNumber)
}

func (n *ResendNotifier) PaymentReceipt(to string, order model.Order, transactionID string) {
	subject := fmt.Sprintf("Payment received for order %s", order.OrderNumber)
	body := fmt.Sprintf(
		"We have received your payment.\n\n"+
			"Order number: %s\n"+
			"Amount: Rs. %d\n"+
			"Transaction: %s\n",
		order.OrderNumber, order.TotalAmount, transactionID,
	)
	n.send(to, subject, body, order.OrderNumber)
}

func (n *ResendNotifier) send(to, subject, body, orderNumber string) {
	if to == "" {
		slog.Warn("notification skipped: empty recipient", "order_number", orderNumber)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		params := &resend.SendEmailRequest{
			From:    n.from,
			To:      []string{to},
			Subject: subject,
			Text:    body,
		}
		if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
			slog.Error("failed to send notification", "order_number", orderNumber, "subject", subject, "error", err)
		}
	}()
}
