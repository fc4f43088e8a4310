package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vaughnsterling/payments-api/pkg/utils"
	"go.uber.org/zap"
)

// AlertNotifier raises operator-facing alerts for conditions that must not
// surface to the calling party (e.g. exhausted reconciliation retries, invalid
// webhook signatures). Best effort: failures are logged, never propagated.
type AlertNotifier interface {
	Alert(ctx context.Context, level, action string, fields map[string]any)
}

type WebhookAlertNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookAlertNotifier posts alert JSON to the monitoring webhook URL.
// With an empty URL every alert is a no-op beyond logging.
func NewWebhookAlertNotifier(logger *zap.Logger, url string) *WebhookAlertNotifier {
	return &WebhookAlertNotifier{
		url:    url,
		client: utils.NewHTTPClient(utils.WithClientTimeout(3 * time.Second)),
		logger: logger,
	}
}

func (n *WebhookAlertNotifier) Alert(ctx context.Context, level, action string, fields map[string]any) {
	n.logger.Warn("monitoring alert",
		zap.String("level", level), zap.String("action", action), zap.Any("fields", fields))
	if n.url == "" {
		return
	}

	payload := map[string]any{"level": level, "action": action}
	for k, v := range fields {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to encode monitoring alert", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to build monitoring alert request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("failed to post monitoring alert", zap.Error(err))
		return
	}
	_ = resp.Body.Close()
}
