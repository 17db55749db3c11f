package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers rate-limiting step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I send (\d+) email checks in a row$`, steps.sendEmailChecks)
	ctx.Step(`^at least one request should be rate limited$`, steps.someRequestLimited)
	ctx.Step(`^the limited response should carry a Retry-After header$`, steps.limitedResponseHasRetryAfter)
	ctx.Step(`^I send (\d+) failed admin logins in a row$`, steps.sendFailedLogins)
}

type ratelimitSteps struct {
	tc TestContext

	limited    int
	retryAfter string
}

func (s *ratelimitSteps) record() {
	if s.tc.GetLastResponseStatus() == http.StatusTooManyRequests {
		s.limited++
		s.retryAfter = s.tc.GetLastResponseHeader("Retry-After")
	}
}

func (s *ratelimitSteps) sendEmailChecks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		body := map[string][]string{"emails": {fmt.Sprintf("burst-%d@e2e.numerano.test", i)}}
		if err := s.tc.POST("/registrations/email-check", body); err != nil {
			return err
		}
		s.record()
	}
	return nil
}

func (s *ratelimitSteps) sendFailedLogins(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := s.tc.POST("/admin/login", map[string]string{"username": "admin", "password": "wrong"}); err != nil {
			return err
		}
		s.record()
	}
	return nil
}

func (s *ratelimitSteps) someRequestLimited(ctx context.Context) error {
	if s.limited == 0 {
		return fmt.Errorf("no request was rate limited")
	}
	return nil
}

func (s *ratelimitSteps) limitedResponseHasRetryAfter(ctx context.Context) error {
	seconds, err := strconv.Atoi(s.retryAfter)
	if err != nil || seconds < 1 {
		return fmt.Errorf("expected a positive Retry-After, got %q", s.retryAfter)
	}
	return nil
}
