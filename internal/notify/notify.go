package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

const (
	// BonusPlaceholder is replaced per row with the formatted bonus. A
	// template without it is sent literally to every recipient.
	BonusPlaceholder = "{bonus}"

	DefaultTemplate = "Dear Customer, your bonus for this month is SAR {bonus}. Thank you for your continued support!"

	emailSubject = "Your Bonus Information"
)

// SMSCredentials are held for the duration of one dispatch request and
// never persisted or logged.
type SMSCredentials struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	FromNumber string `json:"from_number"`
}

type SMTPCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Request describes one dispatch over an already filtered view.
type Request struct {
	Channel  Channel
	Template string
	SMS      *SMSCredentials
	SMTP     *SMTPCredentials
	Rows     []models.Transaction
}

// Result is the outcome for a single row. Rows are attempted in view
// order and a failure never aborts the loop.
type Result struct {
	Row       int    `json:"row"`
	Recipient string `json:"recipient"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type Report struct {
	ID        string   `json:"id"`
	Channel   Channel  `json:"channel"`
	Attempted int      `json:"attempted"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

type SMSSender interface {
	Send(to, body string) error
}

type EmailSender interface {
	Send(to, subject, body string) error
}

// Dispatcher sends one message per row of a filtered view through the
// selected channel. Sender construction is injectable for tests.
type Dispatcher struct {
	logger   *slog.Logger
	newSMS   func(SMSCredentials) SMSSender
	newEmail func(SMTPCredentials) EmailSender
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		newSMS:   newTwilioSender,
		newEmail: newSMTPSender,
	}
}

// Dispatch runs the per-row send loop. It validates credentials and the
// schema precondition up front; after that every row is attempted and
// failures are isolated per row.
func (d *Dispatcher) Dispatch(ctx context.Context, schema services.Schema, req Request) (*Report, error) {
	if err := validate(schema, req); err != nil {
		return nil, err
	}

	var contact func(models.Transaction) string
	var send func(to, body string) error
	switch req.Channel {
	case ChannelSMS:
		sender := d.newSMS(*req.SMS)
		contact = func(tx models.Transaction) string { return tx.Mobile }
		send = sender.Send
	case ChannelEmail:
		sender := d.newEmail(*req.SMTP)
		contact = func(tx models.Transaction) string { return tx.Email }
		send = func(to, body string) error { return sender.Send(to, emailSubject, body) }
	}

	report := &Report{
		ID:      uuid.NewString(),
		Channel: req.Channel,
		Results: make([]Result, 0, len(req.Rows)),
	}

	for i, tx := range req.Rows {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("dispatch aborted", "report_id", report.ID, "after_rows", i)
			return report, errors.InternalWrap(err, "dispatch aborted")
		}

		result := d.dispatchRow(i, tx, req.Template, contact, send)
		report.Attempted++
		if result.OK {
			report.Sent++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	d.logger.Info("dispatch complete",
		"report_id", report.ID,
		"channel", req.Channel,
		"attempted", report.Attempted,
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return report, nil
}

func (d *Dispatcher) dispatchRow(row int, tx models.Transaction, template string, contact func(models.Transaction) string, send func(to, body string) error) Result {
	recipient := contact(tx)
	if recipient == "" {
		return Result{Row: row, Error: "missing contact address"}
	}

	body := RenderTemplate(template, tx.Bonus)
	if err := send(recipient, body); err != nil {
		// Credentials may appear in transport errors; log only the row.
		d.logger.Warn("send failed", "row", row, "recipient", recipient)
		return Result{Row: row, Recipient: recipient, Error: err.Error()}
	}
	return Result{Row: row, Recipient: recipient, OK: true}
}

// RenderTemplate substitutes the bonus placeholder with the row's bonus,
// formatted to two decimal places.
func RenderTemplate(template string, bonus float64) string {
	return strings.ReplaceAll(template, BonusPlaceholder, decimal.NewFromFloat(bonus).StringFixed(2))
}

func validate(schema services.Schema, req Request) error {
	if len(strings.TrimSpace(req.Template)) == 0 {
		return errors.Validation("message template must not be empty")
	}

	switch req.Channel {
	case ChannelSMS:
		if !schema.HasMobile {
			return errors.Precondition("the dataset must contain a 'Mobile' column to send SMS notifications")
		}
		if req.SMS == nil || req.SMS.AccountSID == "" || req.SMS.AuthToken == "" || req.SMS.FromNumber == "" {
			return errors.Validation("please provide Twilio credentials")
		}
	case ChannelEmail:
		if !schema.HasEmail {
			return errors.Precondition("the dataset must contain an 'email' column to send email notifications")
		}
		if req.SMTP == nil || req.SMTP.Host == "" || req.SMTP.Port == 0 || req.SMTP.Username == "" || req.SMTP.Password == "" {
			return errors.Validation("please provide SMTP credentials")
		}
	default:
		return errors.Validation(fmt.Sprintf("unknown notification channel %q", req.Channel))
	}
	return nil
}
