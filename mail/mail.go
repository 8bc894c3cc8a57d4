package mail

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/models"
	templates "github.com/parkpass/parking-pass-api/templates/html"
)

const fromName = "Parking Pass Office"
const fromEmail = "no-reply@parking-pass.example.com"

// Client sends notification emails through sendgrid. Every send is
// best-effort: failures are logged and never propagated to the caller.
type Client struct {
	APIKey string
}

// New creates a mail client with the given sendgrid API key. An empty key
// disables sending.
func New(apiKey string) *Client {
	return &Client{APIKey: apiKey}
}

// SendDecision notifies the applicant that their application was reviewed.
func (c *Client) SendDecision(app models.Application) {
	subject := fmt.Sprintf("Your Parking Pass Application Was %s",
		capitalize(app.Details.Status))

	body := fmt.Sprintf("Hi %s,\n\nYour parking pass application for the %d %s %s (plate %s) has been %s.",
		app.Details.UserName,
		app.Details.VehicleYear,
		app.Details.VehicleMake,
		app.Details.VehicleModel,
		app.Details.LicensePlate,
		app.Details.Status,
	)
	if app.Details.AdminComment != "" {
		body += fmt.Sprintf("\n\nReviewer comment: %s", app.Details.AdminComment)
	}

	c.send(app.Details.UserEmail, app.Details.UserName, subject, body)
}

// SendPendingReminder nudges the admin mailbox about applications that have
// been waiting for review too long.
func (c *Client) SendPendingReminder(toEmail string, pending int, oldest models.Application) {
	subject := "Parking Pass Applications Awaiting Review"
	body := fmt.Sprintf("There are %d parking pass applications still pending review.\n\nThe oldest is from %s (%s), submitted %s.",
		pending,
		oldest.Details.UserName,
		oldest.Details.UserEmail,
		oldest.Details.SubmittedAt.Time().Format("2006-01-02 15:04 MST"),
	)

	c.send(toEmail, "Parking Admin", subject, body)
}

func (c *Client) send(toEmail, toName, subject, plainText string) {
	if c.APIKey == "" || toEmail == "" {
		zap.S().Debugw("mail disabled or recipient missing, skipping send", "subject", subject)
		return
	}

	from := sgmail.NewEmail(fromName, fromEmail)
	to := sgmail.NewEmail(toName, toEmail)
	htmlContent := templates.RenderGenericEmail(subject, plainText)
	message := sgmail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	client := sendgrid.NewSendClient(c.APIKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send email", "subject", subject, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status",
			"status", response.StatusCode,
			"body", response.Body)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
