package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/cache"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/gateway"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

type webhookEvent string

const (
	eventPaymentCaptured webhookEvent = "payment.captured"
	eventPaymentFailed   webhookEvent = "payment.failed"
	eventOrderPaid       webhookEvent = "order.paid"
)

//一度処理したイベントIDを覚えておく期間
const webhookDedupTTL = 24 * time.Hour

type webhookEnvelope struct {
	Event   string         `json:"event"`
	Payload webhookPayload `json:"payload"`
}

type webhookPayload struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	AmountPaise      int64  `json:"amount_paise"`
}

type WebhookUsecase struct {
	tx     repo.TransactionManager
	cache  cache.Provider
	events event.Publisher

	webhookSecret string
	handlers      map[webhookEvent]func(ctx context.Context, pl webhookPayload) error
}

func NewWebhookUsecase(tx repo.TransactionManager, c cache.Provider, events event.Publisher, webhookSecret string) *WebhookUsecase {
	u := &WebhookUsecase{
		tx:            tx,
		cache:         c,
		events:        events,
		webhookSecret: webhookSecret,
	}
	u.handlers = map[webhookEvent]func(ctx context.Context, pl webhookPayload) error{
		eventPaymentCaptured: u.handlePaymentCaptured,
		eventPaymentFailed:   u.handlePaymentFailed,
		eventOrderPaid:       u.handleOrderPaid,
	}
	return u
}

// HandleEvent はゲートウェイからのpush通知の入口。
// 署名が合わなければ何もせず拒否。知らないイベントと、参照先の見つからない
// イベントはACKして流す（ゲートウェイの再送ストームを起こさないため）。
// DB障害だけ500で返し、ゲートウェイ側の再送に委ねる
func (u *WebhookUsecase) HandleEvent(ctx context.Context, rawBody []byte, signature, eventID string) error {
	if !gateway.VerifyWebhookSignature(u.webhookSecret, rawBody, signature) {
		slog.Warn("webhook signature mismatch", "event_id", eventID)
		return NewHTTPError(http.StatusBadRequest, CodeInvalidSignature, "invalid webhook signature")
	}

	//イベントIDが来ていれば既処理チェック。キャッシュ障害時は素通しして
	//条件付きUPDATE側の冪等性に任せる
	if eventID != "" {
		if _, err := u.cache.Get(ctx, cache.WebhookKey(eventID)); err == nil {
			slog.Info("duplicate webhook event skipped", "event_id", eventID)
			return nil
		} else if err != cache.ErrNotFound {
			slog.Warn("webhook dedup lookup failed", "event_id", eventID, "error", err)
		}
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return NewHTTPError(http.StatusBadRequest, CodeValidationError, "malformed webhook body")
	}

	h, ok := u.handlers[webhookEvent(env.Event)]
	if !ok {
		slog.Info("unhandled webhook event acknowledged", "event", env.Event)
		return nil
	}
	if err := h(ctx, env.Payload); err != nil {
		return err
	}

	//処理済みマークは成功した時だけ。失敗時は再送でやり直せるように残さない
	if eventID != "" {
		if err := u.cache.Set(ctx, cache.WebhookKey(eventID), "1", webhookDedupTTL); err != nil {
			slog.Warn("webhook dedup store failed", "event_id", eventID, "error", err)
		}
	}
	return nil
}

// payment.captured: 決済確定の本流。検証APIと同じ行を条件付きUPDATEで取り合う
func (u *WebhookUsecase) handlePaymentCaptured(ctx context.Context, pl webhookPayload) error {
	if pl.GatewayPaymentID == "" {
		slog.Warn("payment.captured without gateway_payment_id acknowledged")
		return nil
	}

	var settled model.Order
	won := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, found, err := r.Payments().FindByGatewayPaymentID(ctx, pl.GatewayPaymentID)
		if err != nil {
			return errInternal()
		}
		if !found && pl.GatewayOrderID != "" {
			//webhookが先に決済IDを知ったケース。intent IDで探して初回紐付け
			p, found, err = r.Payments().FindByGatewayOrderID(ctx, pl.GatewayOrderID)
			if err != nil {
				return errInternal()
			}
			if found {
				if err := r.Payments().SetGatewayPaymentID(ctx, p.ID, pl.GatewayPaymentID); err != nil {
					return errInternal()
				}
			}
		}
		if !found {
			slog.Warn("payment.captured for unknown payment acknowledged",
				"gateway_payment_id", pl.GatewayPaymentID, "gateway_order_id", pl.GatewayOrderID)
			return nil
		}

		ok, err := r.Payments().CompleteIfPending(ctx, p.ID, pl.GatewayPaymentID, "", pl.GatewayPaymentID)
		if err != nil {
			return errInternal()
		}
		if !ok {
			//検証APIか前回の配送が先に確定済み
			return nil
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return errInternal()
		}
		if _, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.OrderPaymentPending, model.OrderPaymentPaid); err != nil {
			return errInternal()
		}
		if err := r.Orders().AppendNote(ctx, o.ID, "payment captured via webhook ("+pl.GatewayPaymentID+")"); err != nil {
			return errInternal()
		}

		o.PaymentStatus = model.OrderPaymentPaid
		settled = o
		won = true
		return nil
	})
	if err != nil {
		return err
	}

	if won {
		u.events.Publish(event.TopicPaymentSettled, settled.OrderNumber, event.PaymentSettled{
			OrderID:       settled.ID,
			OrderNumber:   settled.OrderNumber,
			Amount:        settled.TotalAmount,
			Method:        string(settled.PaymentMethod),
			TransactionID: pl.GatewayPaymentID,
			SettledAt:     time.Now(),
		})
	}
	return nil
}

// payment.failed: pendingの決済だけfailedに倒す
func (u *WebhookUsecase) handlePaymentFailed(ctx context.Context, pl webhookPayload) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var (
			p     model.Payment
			found bool
			err   error
		)
		if pl.GatewayPaymentID != "" {
			p, found, err = r.Payments().FindByGatewayPaymentID(ctx, pl.GatewayPaymentID)
			if err != nil {
				return errInternal()
			}
		}
		if !found && pl.GatewayOrderID != "" {
			p, found, err = r.Payments().FindByGatewayOrderID(ctx, pl.GatewayOrderID)
			if err != nil {
				return errInternal()
			}
		}
		if !found {
			slog.Warn("payment.failed for unknown payment acknowledged",
				"gateway_payment_id", pl.GatewayPaymentID, "gateway_order_id", pl.GatewayOrderID)
			return nil
		}

		ok, err := r.Payments().FailIfPending(ctx, p.ID, pl.GatewayPaymentID)
		if err != nil {
			return errInternal()
		}
		if !ok {
			return nil
		}
		if _, err := r.Orders().UpdatePaymentStatusIf(ctx, p.OrderID, model.OrderPaymentPending, model.OrderPaymentFailed); err != nil {
			return errInternal()
		}
		return r.Orders().AppendNote(ctx, p.OrderID, "payment failed via webhook")
	})
}

// order.paid: 注文側だけ見る通知。payment_statusをpaidへ、
// ステータスはplacedからprocessingへ進める場合のみ動かす
func (u *WebhookUsecase) handleOrderPaid(ctx context.Context, pl webhookPayload) error {
	if pl.GatewayOrderID == "" {
		slog.Warn("order.paid without gateway_order_id acknowledged")
		return nil
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, found, err := r.Payments().FindByGatewayOrderID(ctx, pl.GatewayOrderID)
		if err != nil {
			return errInternal()
		}
		if !found {
			slog.Warn("order.paid for unknown order acknowledged", "gateway_order_id", pl.GatewayOrderID)
			return nil
		}

		paid, err := r.Orders().UpdatePaymentStatusIf(ctx, p.OrderID, model.OrderPaymentPending, model.OrderPaymentPaid)
		if err != nil {
			return errInternal()
		}
		advanced, err := r.Orders().UpdateStatusIf(ctx, p.OrderID, model.OrderStatusPlaced, model.OrderStatusProcessing)
		if err != nil {
			return errInternal()
		}
		if !paid && !advanced {
			return nil
		}

		if err := r.Orders().AppendNote(ctx, p.OrderID, "order marked paid via webhook"); err != nil {
			return errInternal()
		}
		if advanced {
			//webhook起点なのでactorはシステム扱い（0）
			if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
				OrderID:        p.OrderID,
				PreviousStatus: model.OrderStatusPlaced,
				NewStatus:      model.OrderStatusProcessing,
				ActorUserID:    0,
				Notes:          "order.paid webhook",
				CreatedAt:      time.Now(),
			}); err != nil {
				return errInternal()
			}
		}
		return nil
	})
}
