package service

import (
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkit/internal/config"
)

// SendEmailWithSendGrid delivers one transactional email. Returns an error
// when SendGrid is not configured or replies with a non-2xx status.
func SendEmailWithSendGrid(cfg *config.Config, toEmail, toName, subject, plainBody string) error {
	if cfg.SendGridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	if cfg.SendGridFromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}

	from := mail.NewEmail(cfg.SendGridFromName, cfg.SendGridFromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainBody, "")

	client := sendgrid.NewSendClient(cfg.SendGridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sending email via SendGrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// SendSMS delivers one SMS through Twilio. The destination should be in
// E.164 format.
func SendSMS(cfg *config.Config, toNumber, messageBody string) error {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		return fmt.Errorf("twilio credentials not fully configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		return fmt.Errorf("destination number %q is not in E.164 format", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.TwilioAccountSID,
		Password:   cfg.TwilioAuthToken,
		AccountSid: cfg.TwilioAccountSID,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(cfg.TwilioFromNumber)
	params.SetBody(messageBody)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending SMS: %w", err)
	}
	return nil
}
