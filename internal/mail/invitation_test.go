package mail

import (
	"strings"
	"testing"
)

func TestBuildInvitationEmail(t *testing.T) {
	e := BuildInvitationEmail(InvitationEmailData{
		ProfessionalName: "Dana Reyes",
		PackageTitle:     "12-Week Strength Block",
		AcceptLink:       "https://app.example.com/invitations/accept?token=cwinv_abc",
		ExpiresInDays:    7,
	})

	if !strings.Contains(e.Subject, "Dana Reyes") {
		t.Errorf("subject missing professional name: %q", e.Subject)
	}
	if !strings.Contains(e.TextBody, "https://app.example.com/invitations/accept?token=cwinv_abc") {
		t.Error("text body missing accept link")
	}
	if !strings.Contains(e.TextBody, "12-Week Strength Block") {
		t.Error("text body missing package title")
	}
	if !strings.Contains(e.TextBody, "expires in 7 days") {
		t.Error("text body missing expiry notice")
	}
	if !strings.Contains(e.HTMLBody, "Accept Invitation") {
		t.Error("html body missing accept button")
	}
	if !strings.Contains(e.HTMLBody, "12-Week Strength Block") {
		t.Error("html body missing package title")
	}
}

func TestBuildInvitationEmailNoPackage(t *testing.T) {
	e := BuildInvitationEmail(InvitationEmailData{
		ProfessionalName: "Dana Reyes",
		AcceptLink:       "https://app.example.com/invitations/accept?token=cwinv_abc",
		ExpiresInDays:    7,
	})

	if strings.Contains(e.TextBody, "Package:") {
		t.Error("text body should omit package line when unbound")
	}
	if strings.Contains(e.HTMLBody, "Package:") {
		t.Error("html body should omit package block when unbound")
	}
}

func TestBuildMessageMultipart(t *testing.T) {
	msg := string(buildMessage("coach@example.com", Email{
		To:       "invitee@example.com",
		Subject:  "hello",
		TextBody: "plain",
		HTMLBody: "<p>rich</p>",
	}))

	for _, want := range []string{
		"From: coach@example.com",
		"To: invitee@example.com",
		"Subject: hello",
		"multipart/alternative",
		"text/plain; charset=UTF-8",
		"text/html; charset=UTF-8",
		"plain",
		"<p>rich</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
