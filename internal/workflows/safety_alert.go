package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// SafetyAlertInput is the input for the safety alert workflow.
type SafetyAlertInput struct {
	SessionID   string
	RouteID     string
	PolygonName string
	Message     string
	Lat         float64
	Lon         float64
	RaisedAt    time.Time
}

// SafetyAlertWorkflow notifies a caregiver that a walker entered a geofence.
// If notification still fails after retries, the alert is recorded as
// unnotified so it can be followed up by hand.
func SafetyAlertWorkflow(ctx workflow.Context, input SafetyAlertInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting safety alert workflow", "session", input.SessionID, "polygon", input.PolygonName)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	err := workflow.ExecuteActivity(ctx, "NotifyCaregiver", input).Get(ctx, nil)
	if err != nil {
		logger.Warn("caregiver notification failed, recording", "error", err)
		_ = workflow.ExecuteActivity(ctx, "RecordUnnotified", input, err.Error()).Get(ctx, nil)
		return err
	}

	logger.Info("Caregiver notified", "session", input.SessionID)
	return nil
}
