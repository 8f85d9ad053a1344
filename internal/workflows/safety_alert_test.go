package workflows

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"
)

type fakeNotifier struct {
	calls atomic.Int32
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, alert SafetyAlertInput) error {
	f.calls.Add(1)
	return f.err
}

func alertInput() SafetyAlertInput {
	return SafetyAlertInput{
		SessionID:   "s1",
		RouteID:     "r1",
		PolygonName: "platform-edge",
		Message:     "You are too close to the ledge",
		Lat:         28.5115,
		Lon:         77.4088,
		RaisedAt:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestSafetyAlertWorkflow_Notifies(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	n := &fakeNotifier{}
	env.RegisterActivity(&SafetyActivities{Notifier: n})
	env.ExecuteWorkflow(SafetyAlertWorkflow, alertInput())

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if n.calls.Load() != 1 {
		t.Fatalf("notifier calls = %d; want 1", n.calls.Load())
	}
}

func TestSafetyAlertWorkflow_RetriesThenFails(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	n := &fakeNotifier{err: errors.New("webhook down")}
	env.RegisterActivity(&SafetyActivities{Notifier: n})
	env.ExecuteWorkflow(SafetyAlertWorkflow, alertInput())

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Fatal("expected workflow error")
	}
	if n.calls.Load() != 3 {
		t.Fatalf("notifier calls = %d; want 3 attempts", n.calls.Load())
	}
}

func TestSafetyAlertWorkflow_NoNotifier(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	env.RegisterActivity(&SafetyActivities{})
	env.ExecuteWorkflow(SafetyAlertWorkflow, alertInput())

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
}
