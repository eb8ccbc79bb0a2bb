package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/gateway"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/notification"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

type PaymentUsecase struct {
	tx       repo.TransactionManager
	gw       gateway.Client
	users    repo.UserRepository
	events   event.Publisher
	notifier notification.Notifier

	//クライアントSDKに渡す公開キーと、署名検証用のシークレット
	gatewayKeyID  string
	gatewaySecret string
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	gw gateway.Client,
	users repo.UserRepository,
	events event.Publisher,
	notifier notification.Notifier,
	gatewayKeyID string,
	gatewaySecret string,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:            tx,
		gw:            gw,
		users:         users,
		events:        events,
		notifier:      notifier,
		gatewayKeyID:  gatewayKeyID,
		gatewaySecret: gatewaySecret,
	}
}

type CreateGatewayOrderInput struct {
	OrderID  int64
	Amount   int64
	Currency string
}

type GatewayOrderOutput struct {
	OrderID        int64  `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	GatewayOrderID string `json:"gateway_order_id"`
	AmountPaise    int64  `json:"amount_paise"`
	Currency       string `json:"currency"`
	GatewayKeyID   string `json:"gateway_key_id"`
}

// CreateGatewayOrder はゲートウェイ側に決済intentを作る。
// 金額はここで最後にもう一度突き合わせる。クライアントの申告額を信用しない
func (u *PaymentUsecase) CreateGatewayOrder(ctx context.Context, userID int64, in CreateGatewayOrderInput) (GatewayOrderOutput, error) {
	if userID <= 0 {
		return GatewayOrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return GatewayOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid order_id")
	}
	if in.Amount <= 0 {
		return GatewayOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid amount")
	}
	currency := in.Currency
	if currency == "" {
		currency = "INR"
	}
	if currency != "INR" {
		return GatewayOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "unsupported currency")
	}

	var order model.Order
	var paymentID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if o.PaymentMethod != model.PaymentMethodGateway {
			return NewHTTPError(http.StatusBadRequest, CodeValidationError, "not a gateway order")
		}
		if o.PaymentStatus != model.OrderPaymentPending {
			return NewHTTPError(http.StatusBadRequest, CodeValidationError, "order is not awaiting payment")
		}
		if in.Amount != o.TotalAmount {
			return NewHTTPError(http.StatusBadRequest, CodeAmountMismatch, "amount does not match order total")
		}

		p, err := r.Payments().FindByOrderID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "payment not found")
		}
		if err != nil {
			return errInternal()
		}

		order = o
		paymentID = p.ID
		return nil
	})
	if err != nil {
		return GatewayOrderOutput{}, err
	}

	//外部呼び出しはトランザクションの外で。ルピー→パイサはここだけ
	gwOrder, err := u.gw.CreateOrder(ctx, gateway.CreateOrderParams{
		AmountPaise: order.TotalAmount * 100,
		Currency:    currency,
		Receipt:     order.OrderNumber,
		Notes:       map[string]string{"order_number": order.OrderNumber},
	})
	if err != nil {
		slog.Error("gateway create order failed", "order_number", order.OrderNumber, "error", err)
		return GatewayOrderOutput{}, NewHTTPError(http.StatusBadGateway, CodeInternal, "payment gateway unavailable")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Payments().SetGatewayOrderID(ctx, paymentID, gwOrder.ID); err != nil {
			return errInternal()
		}
		return nil
	})
	if err != nil {
		return GatewayOrderOutput{}, err
	}

	return GatewayOrderOutput{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		GatewayOrderID: gwOrder.ID,
		AmountPaise:    gwOrder.AmountPaise,
		Currency:       gwOrder.Currency,
		GatewayKeyID:   u.gatewayKeyID,
	}, nil
}

type VerifyGatewayPaymentInput struct {
	OrderID          int64
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type GatewayPaymentSnapshot struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	AmountPaise int64  `json:"amount_paise"`
}

type VerifyGatewayPaymentOutput struct {
	Order   OrderOutput             `json:"order"`
	Gateway *GatewayPaymentSnapshot `json:"gateway_payment,omitempty"`
}

// VerifyGatewayPayment はクライアントが持ち帰った署名を検証して決済を確定する。
// webhookと同じ行を取り合うので、確定は全部「pendingの時だけ」の条件付き。
// 2回目の呼び出しや、webhookが先に確定した後の呼び出しは静かに成功で返る
func (u *PaymentUsecase) VerifyGatewayPayment(ctx context.Context, userID int64, in VerifyGatewayPaymentInput) (VerifyGatewayPaymentOutput, error) {
	if userID <= 0 {
		return VerifyGatewayPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		return VerifyGatewayPaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "missing gateway_order_id, gateway_payment_id or signature")
	}

	var out VerifyGatewayPaymentOutput
	var settled model.Order
	won := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, found, err := r.Payments().FindByGatewayOrderID(ctx, in.GatewayOrderID)
		if err != nil {
			return errInternal()
		}
		if !found {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "payment not found")
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if in.OrderID > 0 && in.OrderID != o.ID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}

		//署名不一致は決済をfailedに倒して拒否する。
		//比較は定数時間。すでに確定済みの行は条件付きUPDATEが守る
		if !gateway.VerifySignature(u.gatewaySecret, in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
			slog.Warn("payment signature verification failed",
				"order_number", o.OrderNumber, "gateway_order_id", in.GatewayOrderID, "user_id", userID)

			if _, err := r.Payments().FailIfPending(ctx, p.ID, in.GatewayPaymentID); err != nil {
				return errInternal()
			}
			if _, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.OrderPaymentPending, model.OrderPaymentFailed); err != nil {
				return errInternal()
			}
			if err := r.Orders().AppendNote(ctx, o.ID, "payment signature verification failed"); err != nil {
				return errInternal()
			}
			return NewHTTPError(http.StatusBadRequest, CodeSignatureVerificationFailed, "signature verification failed")
		}

		ok, err := r.Payments().CompleteIfPending(ctx, p.ID, in.GatewayPaymentID, in.Signature, in.GatewayPaymentID)
		if err != nil {
			return errInternal()
		}
		if ok {
			//この呼び出しが勝った。注文側も進める
			if _, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.OrderPaymentPending, model.OrderPaymentPaid); err != nil {
				return errInternal()
			}
			advanced, err := r.Orders().UpdateStatusIf(ctx, o.ID, model.OrderStatusPlaced, model.OrderStatusProcessing)
			if err != nil {
				return errInternal()
			}
			note := "payment completed via gateway (" + in.GatewayPaymentID + ")"
			if err := r.Orders().AppendNote(ctx, o.ID, note); err != nil {
				return errInternal()
			}
			if advanced {
				if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
					OrderID:        o.ID,
					PreviousStatus: model.OrderStatusPlaced,
					NewStatus:      model.OrderStatusProcessing,
					ActorUserID:    userID,
					Notes:          "payment verified",
					CreatedAt:      time.Now(),
				}); err != nil {
					return errInternal()
				}
				o.Status = model.OrderStatusProcessing
			}
			o.PaymentStatus = model.OrderPaymentPaid
			won = true
		} else {
			//先にwebhookか前回の呼び出しが確定済み。現在値をそのまま返す
			o, err = r.Orders().FindByID(ctx, o.ID)
			if err != nil {
				return errInternal()
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return errInternal()
		}
		settled = o
		out = VerifyGatewayPaymentOutput{Order: toOrderOutput(o, items)}
		return nil
	})
	if err != nil {
		return VerifyGatewayPaymentOutput{}, err
	}

	if won {
		//監査用にゲートウェイ側の決済レコードを引いておく（ベストエフォート）
		if snap, err := u.gw.FetchPayment(ctx, in.GatewayPaymentID); err == nil {
			out.Gateway = &GatewayPaymentSnapshot{
				ID:          snap.ID,
				Status:      snap.Status,
				Method:      snap.Method,
				AmountPaise: snap.AmountPaise,
			}
		} else {
			slog.Warn("gateway payment fetch failed", "gateway_payment_id", in.GatewayPaymentID, "error", err)
		}

		u.events.Publish(event.TopicPaymentSettled, settled.OrderNumber, event.PaymentSettled{
			OrderID:       settled.ID,
			OrderNumber:   settled.OrderNumber,
			Amount:        settled.TotalAmount,
			Method:        string(settled.PaymentMethod),
			TransactionID: in.GatewayPaymentID,
			SettledAt:     time.Now(),
		})
		if user, err := u.users.FindByID(ctx, userID); err == nil && user != nil {
			u.notifier.PaymentReceipt(user.Email, settled, in.GatewayPaymentID)
		}
	}
	return out, nil
}

type CODStatusOutput struct {
	Status               string     `json:"status"`
	CODAmount            int64      `json:"cod_amount"`
	DeliveryAttemptCount int64      `json:"delivery_attempt_count"`
	LastDeliveryAttempt  *time.Time `json:"last_delivery_attempt,omitempty"`
	CollectionAmount     *int64     `json:"collection_amount,omitempty"`
}

type PaymentStatusOutput struct {
	OrderID          int64            `json:"order_id"`
	OrderNumber      string           `json:"order_number"`
	OrderStatus      string           `json:"order_status"`
	PaymentStatus    string           `json:"payment_status"`
	Method           string           `json:"method"`
	Amount           int64            `json:"amount"`
	GatewayOrderID   string           `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string           `json:"gateway_payment_id,omitempty"`
	TransactionID    string           `json:"transaction_id,omitempty"`
	COD              *CODStatusOutput `json:"cod,omitempty"`
}

// PaymentStatus は決済とCOD回収をまとめた現在地ビュー。
// 管理者はどの注文でも見られる。本人は自分の注文だけ
func (u *PaymentUsecase) PaymentStatus(ctx context.Context, userID int64, isAdmin bool, orderID int64) (PaymentStatusOutput, error) {
	if userID <= 0 {
		return PaymentStatusOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentStatusOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid order_id")
	}

	var out PaymentStatusOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return errInternal()
		}
		if !isAdmin && o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}

		out = PaymentStatusOutput{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			OrderStatus:   string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
			Method:        string(o.PaymentMethod),
			Amount:        o.TotalAmount,
		}

		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return errInternal()
		}
		if err == nil {
			out.GatewayOrderID = p.GatewayOrderID
			out.GatewayPaymentID = p.GatewayPaymentID
			out.TransactionID = p.TransactionID
		}

		if o.PaymentMethod == model.PaymentMethodCOD {
			t, found, err := r.CODTracking().FindByOrderID(ctx, orderID)
			if err != nil {
				return errInternal()
			}
			if found {
				out.COD = &CODStatusOutput{
					Status:               string(t.Status),
					CODAmount:            t.CODAmount,
					DeliveryAttemptCount: t.DeliveryAttemptCount,
					LastDeliveryAttempt:  t.LastDeliveryAttempt,
					CollectionAmount:     t.CollectionAmount,
				}
			}
		}
		return nil
	})

	if err != nil {
		return PaymentStatusOutput{}, err
	}
	return out, nil
}
