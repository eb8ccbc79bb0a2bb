package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature は決済検証用の署名を計算する。
// 対象はゲートウェイ注文IDと決済IDを "|" で繋いだ文字列、出力はhex。
func ComputeSignature(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature はクライアントが持ち帰った署名を検証する。
// 比較は必ず定数時間（タイミングで桁を当てられないように）。
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := ComputeSignature(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ComputeWebhookSignature は生のリクエストボディ全体の署名を計算する。
// webhook用シークレットは検証用とは別物。
func ComputeWebhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature はwebhookのヘッダ署名を定数時間で検証する。
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	expected := ComputeWebhookSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
