package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	ActivityPolicyStoreResponse          = "store_carrier_response"
	ActivityPolicyClassifyResponse       = "classify_response"
	ActivityPolicyCompareEstimates       = "compare_estimates"
	ActivityPolicyDetectRegression       = "detect_regression"
	ActivityPolicyResolveState           = "resolve_state"
	ActivityPolicySynthesizeIntelligence = "synthesize_intelligence"
	ActivityPolicyEnqueueAction          = "enqueue_action"
	ActivityPolicyResolveAction          = "resolve_action"
	ActivityPolicyLoadSnapshot           = "load_snapshot"
	ActivityPolicyEvaluateReadiness      = "evaluate_readiness"
	ActivityPolicyDraftNarrative         = "draft_narrative"
	ActivityPolicyDispatchSubmission     = "dispatch_submission"
)

type activityPolicy struct {
	StartToCloseTimeout time.Duration
	RetryPolicy         temporal.RetryPolicy
}

var defaultRetry = temporal.RetryPolicy{
	InitialInterval:    1 * time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    10 * time.Second,
	MaximumAttempts:    3,
}

var activityPolicies = map[string]activityPolicy{
	ActivityPolicyStoreResponse:          {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyClassifyResponse:       {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyCompareEstimates:       {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyDetectRegression:       {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyResolveState:           {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicySynthesizeIntelligence: {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyEnqueueAction:          {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyResolveAction:          {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyLoadSnapshot:           {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	ActivityPolicyEvaluateReadiness:      {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
	// A model call is never blindly retried; the workflow decides what a
	// failed draft means.
	ActivityPolicyDraftNarrative: {
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         temporal.RetryPolicy{MaximumAttempts: 1},
	},
	ActivityPolicyDispatchSubmission: {StartToCloseTimeout: 2 * time.Minute, RetryPolicy: defaultRetry},
}

func ActivityOptionsFor(policyName string) (workflow.ActivityOptions, error) {
	policy, ok := activityPolicies[policyName]
	if !ok {
		return workflow.ActivityOptions{}, fmt.Errorf("unknown activity policy: %s", policyName)
	}

	retry := policy.RetryPolicy
	return workflow.ActivityOptions{
		StartToCloseTimeout: policy.StartToCloseTimeout,
		RetryPolicy:         &retry,
	}, nil
}

func mustActivityContext(ctx workflow.Context, policyName string) workflow.Context {
	ao, err := ActivityOptionsFor(policyName)
	if err != nil {
		panic(err)
	}
	return workflow.WithActivityOptions(ctx, ao)
}
