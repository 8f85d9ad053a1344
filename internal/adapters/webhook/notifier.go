package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/stepwise/internal/workflows"
)

// Notifier implements workflows.CaregiverNotifier by POSTing the alert as
// JSON to a webhook.
type Notifier struct {
	url     string
	client  *fasthttp.Client
	timeout time.Duration
}

// New creates a notifier. A nil client uses a default fasthttp client.
func New(url string, client *fasthttp.Client) *Notifier {
	if client == nil {
		client = &fasthttp.Client{Name: "stepwise-escalator"}
	}
	return &Notifier{url: url, client: client, timeout: 10 * time.Second}
}

type payload struct {
	SessionID string    `json:"session_id"`
	RouteID   string    `json:"route_id"`
	Polygon   string    `json:"polygon"`
	Message   string    `json:"message"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	RaisedAt  time.Time `json:"raised_at"`
}

// Notify sends the alert; any non-2xx response is an error.
func (n *Notifier) Notify(ctx context.Context, alert workflows.SafetyAlertInput) error {
	body, err := json.Marshal(payload{
		SessionID: alert.SessionID,
		RouteID:   alert.RouteID,
		Polygon:   alert.PolygonName,
		Message:   alert.Message,
		Lat:       alert.Lat,
		Lon:       alert.Lon,
		RaisedAt:  alert.RaisedAt,
	})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := n.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}

	if err := n.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("post %s: %w", n.url, err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("post %s: status %d", n.url, code)
	}
	return nil
}
