// Package notification は顧客向けメール通知。
// 送信はすべてコミット後のベストエフォートで、失敗はログに残すだけ。
// ここの失敗が注文や決済の結果を変えることはない。
package notification

import (
	"log/slog"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

type Notifier interface {
	//注文確定メール
	OrderConfirmation(to string, order model.Order)

	//配送ステータス更新メール
	OrderStatusUpdate(to string, order model.Order, newStatus model.OrderStatus)

	//入金確認メール（ゲートウェイ決済・COD回収の両方）
	PaymentReceipt(to string, order model.Order, transactionID string)
}

// DisabledNotifier はAPIキー未設定時の実装。送らずに記録だけする。
type DisabledNotifier struct{}

func (DisabledNotifier) OrderConfirmation(to string, order model.Order) {
	slog.Debug("notification disabled: order confirmation skipped", "order_number", order.OrderNumber)
}

func (DisabledNotifier) OrderStatusUpdate(to string, order model.Order, newStatus model.OrderStatus) {
	slog.Debug("notification disabled: status update skipped", "order_number", order.OrderNumber, "status", string(newStatus))
}

func (DisabledNotifier) PaymentReceipt(to string, order model.Order, transactionID string) {
	slog.Debug("notification disabled: payment receipt skipped", "order_number", order.OrderNumber)
}
