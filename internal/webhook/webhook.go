// Package webhook posts punishment notifications to a Discord-compatible
// webhook URL. Delivery is best effort; failures are logged and never
// propagated to the caller.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/metrics"
	"tangled.org/briar.gg/briar/internal/punishment"
)

const embedColorRed = 0xE74C3C

// Config holds webhook configuration.
type Config struct {
	URL string
}

// Notifier sends punishment embeds to the configured webhook.
type Notifier struct {
	cfg    Config
	client *http.Client
}

// NewNotifier creates a new webhook Notifier.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled returns true if a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.URL != ""
}

type payload struct {
	Content *string `json:"content"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title     string     `json:"title"`
	Color     int        `json:"color"`
	Thumbnail *thumbnail `json:"thumbnail,omitempty"`
	Fields    []field    `json:"fields"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendPunishment posts a "New Punishment Issued" embed. Errors are logged,
// not returned: notification failure must never fail the punishment itself.
func (n *Notifier) SendPunishment(ctx context.Context, p punishment.Punishment) {
	if !n.Enabled() {
		return
	}

	reason := p.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	body, err := json.Marshal(payload{
		Embeds: []embed{{
			Title: "New Punishment Issued",
			Color: embedColorRed,
			Fields: []field{
				{Name: "ID", Value: fmt.Sprintf("%d", p.ID), Inline: true},
				{Name: "Type", Value: string(p.Type), Inline: true},
				{Name: "UUID", Value: p.PlayerID.String(), Inline: true},
				{Name: "Reason", Value: reason, Inline: false},
				{Name: "Expiry", Value: formatExpiry(p.Expiration), Inline: false},
				{Name: "Issued By", Value: p.Issuer, Inline: true},
				{Name: "Issued At", Value: fmt.Sprintf("<t:%d:R>", p.IssuedAt/1000), Inline: true},
			},
		}},
	})
	if err != nil {
		log.Error().Err(err).Msg("webhook: marshal payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("webhook: build request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("webhook: send")
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("webhook: delivery rejected")
		metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		return
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues("ok").Inc()
}

func formatExpiry(expiration *int64) string {
	if expiration == nil {
		return "Permanent"
	}
	return fmt.Sprintf("<t:%d:R>", *expiration/1000)
}
