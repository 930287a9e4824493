package notify

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioSender sends one SMS per call through the Twilio REST API. The
// client lives only as long as the dispatch request that created it.
type twilioSender struct {
	client *twilio.RestClient
	from   string
}

func newTwilioSender(creds SMSCredentials) SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: creds.AccountSID,
		Password: creds.AuthToken,
	})
	return &twilioSender{client: client, from: creds.FromNumber}
}

func (s *twilioSender) Send(to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
