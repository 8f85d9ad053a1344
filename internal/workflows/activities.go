package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
)

// CaregiverNotifier delivers a safety alert to whoever watches over the
// walker.
type CaregiverNotifier interface {
	Notify(ctx context.Context, alert SafetyAlertInput) error
}

// SafetyActivities holds the activity implementations for the safety alert
// workflow.
type SafetyActivities struct {
	Notifier CaregiverNotifier
}

// NotifyCaregiver sends the alert. Without a notifier the alert is only
// logged.
func (a *SafetyActivities) NotifyCaregiver(ctx context.Context, input SafetyAlertInput) error {
	logger := activity.GetLogger(ctx)
	if a.Notifier == nil {
		logger.Info("ALERT (no notifier)", "session", input.SessionID, "polygon", input.PolygonName, "message", input.Message)
		return nil
	}
	if err := a.Notifier.Notify(ctx, input); err != nil {
		return fmt.Errorf("notify caregiver: %w", err)
	}
	return nil
}

// RecordUnnotified logs an alert that could not be delivered.
func (a *SafetyActivities) RecordUnnotified(ctx context.Context, input SafetyAlertInput, reason string) error {
	activity.GetLogger(ctx).Error("safety alert not delivered",
		"session", input.SessionID,
		"route", input.RouteID,
		"polygon", input.PolygonName,
		"lat", input.Lat,
		"lon", input.Lon,
		"raised_at", input.RaisedAt,
		"reason", reason,
	)
	return nil
}
