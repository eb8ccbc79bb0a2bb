package gateway

import "context"

// CreateOrderParams はゲートウェイ側に決済注文を作るときの入力。
// 金額は最小通貨単位（パイサ）で渡す。
type CreateOrderParams struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// GatewayOrder はゲートウェイ側の決済注文（intent）。
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
	Status      string
}

// GatewayPayment はゲートウェイ側の決済レコード。監査用に取得する。
type GatewayPayment struct {
	ID          string
	OrderID     string
	AmountPaise int64
	Currency    string
	Status      string
	Method      string
}

// Client は外部決済ゲートウェイへの操作。
// usecaseはこのインターフェースにだけ依存する（テストではモック）。
type Client interface {
	CreateOrder(ctx context.Context, p CreateOrderParams) (GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (GatewayPayment, error)
}
