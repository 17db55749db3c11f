package e2e

import (
	"github.com/cucumber/godog"

	"numerano/e2e/steps/common"
	"numerano/e2e/steps/ratelimit"
	"numerano/e2e/steps/registration"
	"numerano/e2e/steps/review"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	registration.RegisterSteps(ctx, tc)
	review.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
