package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

// 決済レコードの永続化。
// 終端への遷移は全部「今pendingの時だけ」の条件付き更新にする。
// 検証パスとwebhookパスが同じ行を取り合うので、先に着いた方が勝ち、
// 後から来た方はfalseを受け取って黙って引き下がる。
type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (int64, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, bool, error)
	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (model.Payment, bool, error)

	//intent作成時にゲートウェイ側の注文IDを保存
	SetGatewayOrderID(ctx context.Context, paymentID int64, gatewayOrderID string) error

	//webhookが先にpayment_idを知った場合の初回紐付け
	SetGatewayPaymentID(ctx context.Context, paymentID int64, gatewayPaymentID string) error

	//pendingの時だけcompletedへ。trueなら今回の呼び出しが勝った
	CompleteIfPending(ctx context.Context, paymentID int64, gatewayPaymentID, signature, transactionID string) (bool, error)

	//pendingの時だけfailedへ
	FailIfPending(ctx context.Context, paymentID int64, gatewayPaymentID string) (bool, error)

	//キャンセル時。completedの決済は返金フロー外なので触らない
	RefundIfNotCompleted(ctx context.Context, orderID int64) (bool, error)
}
