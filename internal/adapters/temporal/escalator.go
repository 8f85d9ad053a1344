package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/workflows"
)

// Escalator implements ports.SafetyEscalator by starting a
// SafetyAlertWorkflow per geofence entry.
type Escalator struct {
	client    client.Client
	taskQueue string
}

// NewEscalator dials Temporal.
func NewEscalator(hostPort, namespace, taskQueue string) (*Escalator, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return &Escalator{client: c, taskQueue: taskQueue}, nil
}

// Escalate starts the workflow. The workflow ID is derived from the alert,
// so a redelivered alert does not notify twice.
func (e *Escalator) Escalate(ctx context.Context, alert domain.SafetyAlert) error {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(alert),
		TaskQueue: e.taskQueue,
	}
	_, err := e.client.ExecuteWorkflow(ctx, opts, workflows.SafetyAlertWorkflow, Input(alert))
	if err != nil {
		return fmt.Errorf("start safety workflow: %w", err)
	}
	return nil
}

// Close closes the Temporal client.
func (e *Escalator) Close() {
	e.client.Close()
}

// WorkflowID identifies the workflow for one alert.
func WorkflowID(alert domain.SafetyAlert) string {
	return fmt.Sprintf("safety-%s-%s-%d", alert.SessionID, alert.PolygonName, alert.RaisedAt.UnixMilli())
}

// Input converts a domain alert into workflow input.
func Input(alert domain.SafetyAlert) workflows.SafetyAlertInput {
	return workflows.SafetyAlertInput{
		SessionID:   alert.SessionID,
		RouteID:     alert.RouteID,
		PolygonName: alert.PolygonName,
		Message:     alert.Message,
		Lat:         alert.Position.Lat,
		Lon:         alert.Position.Lon,
		RaisedAt:    alert.RaisedAt,
	}
}
