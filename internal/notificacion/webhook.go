// Package notificacion publica eventos de estructuras hacia un webhook externo.
package notificacion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/guardiaspro/api-estructuras/internal/estructura"
	"github.com/guardiaspro/api-estructuras/internal/logger"
)

// Webhook envía cada evento como JSON por POST. Sin URL no hace nada.
type Webhook struct {
	url    string
	client *resty.Client
}

func NuevoWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Webhook{url: strings.TrimSpace(url), client: client}
}

func (w *Webhook) Notificar(ctx context.Context, ev estructura.Evento) error {
	if w == nil || w.url == "" {
		return nil
	}
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", ev.Tipo, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s: status %d", ev.Tipo, resp.StatusCode())
	}
	logger.DesdeContexto(ctx).WithField("estructura_id", ev.EstructuraID).Debug("webhook enviado")
	return nil
}
