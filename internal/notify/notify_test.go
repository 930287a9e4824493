package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

type fakeSMS struct {
	sent    []string
	failTo  map[string]bool
	lastSID string
}

func (f *fakeSMS) Send(to, body string) error {
	if f.failTo[to] {
		return fmt.Errorf("gateway rejected %s", to)
	}
	f.sent = append(f.sent, to+": "+body)
	return nil
}

type fakeEmail struct {
	sent   []string
	failTo map[string]bool
}

func (f *fakeEmail) Send(to, subject, body string) error {
	if f.failTo[to] {
		return fmt.Errorf("smtp auth failed for %s", to)
	}
	f.sent = append(f.sent, to+"|"+subject+"|"+body)
	return nil
}

func newTestDispatcher(sms *fakeSMS, email *fakeEmail) *Dispatcher {
	d := NewDispatcher(slog.Default())
	d.newSMS = func(creds SMSCredentials) SMSSender {
		sms.lastSID = creds.AccountSID
		return sms
	}
	d.newEmail = func(SMTPCredentials) EmailSender { return email }
	return d
}

func smsSchema() services.Schema {
	return services.Schema{HasMobile: true, HasBonus: true}
}

func smsCreds() *SMSCredentials {
	return &SMSCredentials{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+15550009999"}
}

func TestDispatcher_SMS_PerRowFailureIsolation(t *testing.T) {
	sms := &fakeSMS{failTo: map[string]bool{"+15550002222": true}}
	d := newTestDispatcher(sms, &fakeEmail{})

	rows := []models.Transaction{
		{Mobile: "+15550001111", Bonus: 250},
		{Mobile: "+15550002222", Bonus: 100},
		{Mobile: "+15550003333", Bonus: 75.5},
	}

	report, err := d.Dispatch(context.Background(), smsSchema(), Request{
		Channel:  ChannelSMS,
		Template: DefaultTemplate,
		SMS:      smsCreds(),
		Rows:     rows,
	})
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	// Row 2 fails but rows 1 and 3 must still be attempted, in order.
	if report.Attempted != 3 || report.Sent != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	for i, r := range report.Results {
		if r.Row != i {
			t.Errorf("results out of order at %d: %+v", i, r)
		}
	}
	if report.Results[1].OK || report.Results[1].Error == "" {
		t.Errorf("row 1 should carry its failure reason: %+v", report.Results[1])
	}
	if !report.Results[0].OK || !report.Results[2].OK {
		t.Errorf("rows around the failure should succeed: %+v", report.Results)
	}
	if report.ID == "" {
		t.Error("report should carry an id")
	}
	if sms.lastSID != "AC123" {
		t.Errorf("sender should be built from the request credentials, got %q", sms.lastSID)
	}
}

func TestDispatcher_BonusSubstitution(t *testing.T) {
	sms := &fakeSMS{}
	d := newTestDispatcher(sms, &fakeEmail{})

	_, err := d.Dispatch(context.Background(), smsSchema(), Request{
		Channel:  ChannelSMS,
		Template: "Your bonus is SAR {bonus}.",
		SMS:      smsCreds(),
		Rows:     []models.Transaction{{Mobile: "+15550001111", Bonus: 250}},
	})
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	if len(sms.sent) != 1 || !strings.Contains(sms.sent[0], "SAR 250.00") {
		t.Errorf("bonus not substituted: %v", sms.sent)
	}
}

func TestDispatcher_TemplateWithoutPlaceholder(t *testing.T) {
	sms := &fakeSMS{}
	d := newTestDispatcher(sms, &fakeEmail{})

	template := "Happy holidays from the Superstore team!"
	report, err := d.Dispatch(context.Background(), smsSchema(), Request{
		Channel:  ChannelSMS,
		Template: template,
		SMS:      smsCreds(),
		Rows:     []models.Transaction{{Mobile: "+15550001111", Bonus: 250}},
	})
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	// A template without the placeholder is sent literally.
	if report.Sent != 1 || !strings.HasSuffix(sms.sent[0], template) {
		t.Errorf("expected literal template send, got %v", sms.sent)
	}
}

func TestDispatcher_MissingContactFailsRow(t *testing.T) {
	sms := &fakeSMS{}
	d := newTestDispatcher(sms, &fakeEmail{})

	report, err := d.Dispatch(context.Background(), smsSchema(), Request{
		Channel:  ChannelSMS,
		Template: DefaultTemplate,
		SMS:      smsCreds(),
		Rows: []models.Transaction{
			{Mobile: "", Bonus: 10},
			{Mobile: "+15550001111", Bonus: 20},
		},
	})
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	if report.Failed != 1 || report.Sent != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.Results[0].Error != "missing contact address" {
		t.Errorf("unexpected row error %q", report.Results[0].Error)
	}
}

func TestDispatcher_SMSPrecondition(t *testing.T) {
	d := newTestDispatcher(&fakeSMS{}, &fakeEmail{})

	_, err := d.Dispatch(context.Background(), services.Schema{}, Request{
		Channel:  ChannelSMS,
		Template: DefaultTemplate,
		SMS:      smsCreds(),
		Rows:     []models.Transaction{{Mobile: "+15550001111"}},
	})
	if err == nil {
		t.Fatal("expected precondition error without a Mobile column")
	}
	if !strings.Contains(err.Error(), "Mobile") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestDispatcher_MissingCredentials(t *testing.T) {
	d := newTestDispatcher(&fakeSMS{}, &fakeEmail{})

	tests := []struct {
		name string
		req  Request
	}{
		{"sms without credentials", Request{Channel: ChannelSMS, Template: DefaultTemplate}},
		{"sms with partial credentials", Request{Channel: ChannelSMS, Template: DefaultTemplate, SMS: &SMSCredentials{AccountSID: "AC123"}}},
		{"email without credentials", Request{Channel: ChannelEmail, Template: DefaultTemplate}},
		{"unknown channel", Request{Channel: Channel("pigeon"), Template: DefaultTemplate}},
		{"empty template", Request{Channel: ChannelSMS, Template: "  ", SMS: smsCreds()}},
	}

	schema := services.Schema{HasMobile: true, HasEmail: true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Dispatch(context.Background(), schema, tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDispatcher_Email(t *testing.T) {
	email := &fakeEmail{}
	d := newTestDispatcher(&fakeSMS{}, email)

	report, err := d.Dispatch(context.Background(), services.Schema{HasEmail: true}, Request{
		Channel:  ChannelEmail,
		Template: DefaultTemplate,
		SMTP:     &SMTPCredentials{Host: "smtp.example.com", Port: 587, Username: "u@example.com", Password: "pw"},
		Rows:     []models.Transaction{{Email: "a@example.com", Bonus: 42}},
	})
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	if report.Sent != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !strings.Contains(email.sent[0], "Your Bonus Information") {
		t.Errorf("email should carry the bonus subject: %v", email.sent)
	}
	if !strings.Contains(email.sent[0], "42.00") {
		t.Errorf("email body should carry the formatted bonus: %v", email.sent)
	}
}

func TestDispatcher_CancelledContext(t *testing.T) {
	sms := &fakeSMS{}
	d := newTestDispatcher(sms, &fakeEmail{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := d.Dispatch(ctx, smsSchema(), Request{
		Channel:  ChannelSMS,
		Template: DefaultTemplate,
		SMS:      smsCreds(),
		Rows:     []models.Transaction{{Mobile: "+15550001111"}},
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if report.Attempted != 0 {
		t.Errorf("no rows should be attempted after cancellation, got %d", report.Attempted)
	}
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("bonus: {bonus}, again: {bonus}", 12.345)
	if got != "bonus: 12.35, again: 12.35" {
		t.Errorf("RenderTemplate() = %q", got)
	}
}
