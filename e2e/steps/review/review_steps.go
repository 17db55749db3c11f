package review

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetResponseString(field string) (string, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(name string) string
	SetAdminToken(token string)
	GetAdminPassword() string
	Recall(key string) string
}

// RegisterSteps registers the admin control room steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reviewSteps{tc: tc}

	ctx.Step(`^I log in as the administrator$`, steps.logInAsAdmin)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.logIn)
	ctx.Step(`^I list registrations matching my team$`, steps.listMatchingTeam)
	ctx.Step(`^I list registrations without a token$`, steps.listWithoutToken)
	ctx.Step(`^I (approve|reject) the registration$`, steps.decide)
	ctx.Step(`^I resend the notification$`, steps.resend)
	ctx.Step(`^I download the student ID card$`, steps.downloadIDCard)
	ctx.Step(`^the notification outcome should become "([^"]*)"$`, steps.outcomeShouldBecome)
	ctx.Step(`^the listing should contain my team with status "([^"]*)"$`, steps.listingContains)
}

type reviewSteps struct {
	tc TestContext
}

func (s *reviewSteps) registrationPath(suffix string) string {
	return "/admin/registrations/" + s.tc.Recall("registration_id") + suffix
}

func (s *reviewSteps) logInAsAdmin(ctx context.Context) error {
	password := s.tc.GetAdminPassword()
	if password == "" {
		return fmt.Errorf("NUMERANO_E2E_ADMIN_PASSWORD is not set")
	}
	if err := s.logIn(ctx, "admin", password); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("admin login returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	token, err := s.tc.GetResponseString("access_token")
	if err != nil {
		return err
	}
	s.tc.SetAdminToken(token)
	return nil
}

func (s *reviewSteps) logIn(ctx context.Context, username, password string) error {
	return s.tc.POST("/admin/login", map[string]string{"username": username, "password": password})
}

func (s *reviewSteps) listMatchingTeam(ctx context.Context) error {
	return s.tc.GET("/admin/registrations?q="+s.tc.Recall("team_id"), nil)
}

func (s *reviewSteps) listWithoutToken(ctx context.Context) error {
	s.tc.SetAdminToken("")
	return s.tc.GET("/admin/registrations", nil)
}

func (s *reviewSteps) decide(ctx context.Context, decision string) error {
	return s.tc.POST(s.registrationPath("/review"), map[string]string{"decision": decision})
}

func (s *reviewSteps) resend(ctx context.Context) error {
	return s.tc.POST(s.registrationPath("/notify"), nil)
}

func (s *reviewSteps) downloadIDCard(ctx context.Context) error {
	if err := s.tc.GET(s.registrationPath("/id-card"), nil); err != nil {
		return err
	}
	if ct := s.tc.GetLastResponseHeader("Content-Type"); ct != "application/pdf" {
		return fmt.Errorf("expected application/pdf, got %q", ct)
	}
	return nil
}

// outcomeShouldBecome polls because delivery runs on the background worker.
func (s *reviewSteps) outcomeShouldBecome(ctx context.Context, outcome string) error {
	deadline := time.Now().Add(10 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		if err := s.tc.GET(s.registrationPath("/notification"), nil); err != nil {
			return err
		}
		if s.tc.GetLastResponseStatus() == http.StatusOK {
			got, err := s.tc.GetResponseString("outcome")
			if err != nil {
				return err
			}
			if got == outcome {
				return nil
			}
			last = got
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("notification outcome stayed %q, want %q", last, outcome)
}

func (s *reviewSteps) listingContains(ctx context.Context, status string) error {
	if err := s.listMatchingTeam(ctx); err != nil {
		return err
	}
	teamID := s.tc.Recall("team_id")
	for i := 0; ; i++ {
		got, err := s.tc.GetResponseString(fmt.Sprintf("registrations.%d.team_id", i))
		if err != nil {
			return fmt.Errorf("team %s not in listing: %s", teamID, s.tc.GetLastResponseBody())
		}
		if got != teamID {
			continue
		}
		current, err := s.tc.GetResponseString(fmt.Sprintf("registrations.%d.status", i))
		if err != nil {
			return err
		}
		if current != status {
			return fmt.Errorf("expected status %q, got %q", status, current)
		}
		return nil
	}
}
