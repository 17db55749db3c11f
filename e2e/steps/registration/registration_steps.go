package registration

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	PATCH(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	UploadFile(path, fileName, contentType string, data []byte) error
	GetResponseString(field string) (string, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Remember(key, value string)
	Recall(key string) string
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// RegisterSteps registers the public registration wizard steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrationSteps{tc: tc}

	ctx.Step(`^I start a registration draft$`, steps.startDraft)
	ctx.Step(`^I verify that I am human$`, steps.verifyHuman)
	ctx.Step(`^I advance the wizard$`, steps.advance)
	ctx.Step(`^I go back one step$`, steps.retreat)
	ctx.Step(`^I name the team "([^"]*)"$`, steps.nameTeam)
	ctx.Step(`^I set the team lead to "([^"]*)" with a fresh email$`, steps.setLead)
	ctx.Step(`^I add a member "([^"]*)" with email "([^"]*)"$`, steps.addMember)
	ctx.Step(`^I add a member "([^"]*)" reusing the lead email in upper case$`, steps.addMemberWithLeadEmail)
	ctx.Step(`^I describe the project "([^"]*)" in domain "([^"]*)"$`, steps.describeProject)
	ctx.Step(`^I upload a student ID card$`, steps.uploadIDCard)
	ctx.Step(`^I upload a student ID card that is not a PDF$`, steps.uploadNonPDF)
	ctx.Step(`^I agree to the rules$`, steps.agreeToRules)
	ctx.Step(`^I submit the registration$`, steps.submit)
	ctx.Step(`^I have submitted a registration for team "([^"]*)"$`, steps.submittedRegistration)
	ctx.Step(`^I check the status of my team$`, steps.checkStatus)
	ctx.Step(`^I check whether the lead email is already registered$`, steps.checkLeadEmail)
	ctx.Step(`^the wizard should be on step "([^"]*)"$`, steps.wizardOnStep)
	ctx.Step(`^the team size should be (\d+)$`, steps.teamSizeShouldBe)
}

type registrationSteps struct {
	tc TestContext
}

func (s *registrationSteps) draftPath(suffix string) string {
	return "/registrations/drafts/" + s.tc.Recall("draft_id") + suffix
}

func (s *registrationSteps) expectStatus(expected int) error {
	if status := s.tc.GetLastResponseStatus(); status != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *registrationSteps) startDraft(ctx context.Context) error {
	if err := s.tc.POST("/registrations/drafts", nil); err != nil {
		return err
	}
	if err := s.expectStatus(http.StatusCreated); err != nil {
		return err
	}
	id, err := s.tc.GetResponseString("id")
	if err != nil {
		return err
	}
	s.tc.Remember("draft_id", id)
	return nil
}

func (s *registrationSteps) verifyHuman(ctx context.Context) error {
	if err := s.tc.POST(s.draftPath("/verify"), map[string]string{"token": "e2e-token"}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) advance(ctx context.Context) error {
	return s.tc.POST(s.draftPath("/advance"), nil)
}

func (s *registrationSteps) retreat(ctx context.Context) error {
	return s.tc.POST(s.draftPath("/retreat"), nil)
}

func (s *registrationSteps) nameTeam(ctx context.Context, name string) error {
	if err := s.tc.PATCH(s.draftPath(""), map[string]string{"team_name": name}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) setLead(ctx context.Context, name string) error {
	email := fmt.Sprintf("lead-%d@e2e.numerano.test", time.Now().UnixNano())
	s.tc.Remember("lead_email", email)
	if err := s.tc.PATCH(s.draftPath("/members/0"), map[string]string{"name": name, "email": email}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) addMember(ctx context.Context, name, email string) error {
	if err := s.tc.POST(s.draftPath("/members"), nil); err != nil {
		return err
	}
	if err := s.expectStatus(http.StatusOK); err != nil {
		return err
	}
	size, err := s.tc.GetResponseString("draft.team_size")
	if err != nil {
		return err
	}
	var index int
	if _, err := fmt.Sscanf(size, "%d", &index); err != nil {
		return fmt.Errorf("team size %q: %w", size, err)
	}
	path := fmt.Sprintf("/members/%d", index-1)
	if err := s.tc.PATCH(s.draftPath(path), map[string]string{"name": name, "email": email}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) addMemberWithLeadEmail(ctx context.Context, name string) error {
	return s.addMember(ctx, name, "  "+strings.ToUpper(s.tc.Recall("lead_email")))
}

func (s *registrationSteps) describeProject(ctx context.Context, title, domain string) error {
	if err := s.tc.PATCH(s.draftPath(""), map[string]string{
		"project_title": title,
		"project_idea":  "An end-to-end scenario for " + title,
		"domain":        domain,
	}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) uploadIDCard(ctx context.Context) error {
	if err := s.tc.UploadFile(s.draftPath("/id-card"), "student-id.pdf", "application/pdf", samplePDF); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) uploadNonPDF(ctx context.Context) error {
	return s.tc.UploadFile(s.draftPath("/id-card"), "student-id.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
}

func (s *registrationSteps) agreeToRules(ctx context.Context) error {
	if err := s.tc.PATCH(s.draftPath(""), map[string]bool{"agree_to_rules": true}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *registrationSteps) submit(ctx context.Context) error {
	if err := s.tc.POST(s.draftPath("/submit"), nil); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusCreated {
		return nil
	}
	for _, key := range []string{"registration_id", "team_id"} {
		value, err := s.tc.GetResponseString(key)
		if err != nil {
			return err
		}
		s.tc.Remember(key, value)
	}
	return nil
}

// submittedRegistration walks the whole wizard for a single-member team.
func (s *registrationSteps) submittedRegistration(ctx context.Context, team string) error {
	walk := []func() error{
		func() error { return s.startDraft(ctx) },
		func() error { return s.verifyHuman(ctx) },
		func() error { return s.advanceTo("team_details") },
		func() error { return s.nameTeam(ctx, team) },
		func() error { return s.setLead(ctx, "E2E Lead") },
		func() error { return s.advanceTo("project_details") },
		func() error { return s.describeProject(ctx, team+" Project", "Open Innovation") },
		func() error { return s.uploadIDCard(ctx) },
		func() error { return s.advanceTo("confirm") },
		func() error { return s.agreeToRules(ctx) },
		func() error { return s.submit(ctx) },
		func() error { return s.expectStatus(http.StatusCreated) },
	}
	for _, step := range walk {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *registrationSteps) advanceTo(step string) error {
	if err := s.advance(context.Background()); err != nil {
		return err
	}
	if err := s.expectStatus(http.StatusOK); err != nil {
		return err
	}
	return s.wizardOnStep(context.Background(), step)
}

func (s *registrationSteps) checkStatus(ctx context.Context) error {
	return s.tc.GET("/registrations/status/"+s.tc.Recall("team_id"), nil)
}

func (s *registrationSteps) checkLeadEmail(ctx context.Context) error {
	email := strings.ToUpper(s.tc.Recall("lead_email")) + " "
	return s.tc.POST("/registrations/email-check", map[string][]string{"emails": {email}})
}

func (s *registrationSteps) wizardOnStep(ctx context.Context, step string) error {
	current, err := s.tc.GetResponseString("step")
	if err != nil {
		return err
	}
	if current != step {
		return fmt.Errorf("expected wizard on %q, got %q: %s", step, current, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *registrationSteps) teamSizeShouldBe(ctx context.Context, size int) error {
	got, err := s.tc.GetResponseString("draft.team_size")
	if err != nil {
		return err
	}
	if got != fmt.Sprint(size) {
		return fmt.Errorf("expected team size %d, got %s", size, got)
	}
	return nil
}
