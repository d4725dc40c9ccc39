package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// EmailConfig holds email service configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	CompanyName    string
}

// EmailService sends transactional mail through SendGrid.
type EmailService struct {
	config *EmailConfig
	logger *logrus.Logger
	client *sendgrid.Client
	tmpl   *template.Template
}

var orderConfirmationTemplate = template.Must(template.New("order_confirmation").Parse(`
<h1>Thanks for your order, {{.Name}}!</h1>
<p>Order {{.Order.ID}} has been received.</p>
<table>
{{range .Order.Items}}
  <tr><td>{{.Quantity}} x {{.Name}}</td><td>{{.Subtotal}}</td></tr>
{{end}}
  <tr><td>Shipping</td><td>{{.Order.ShippingCost}}</td></tr>
  <tr><td><strong>Total</strong></td><td><strong>{{.Order.Total}}</strong></td></tr>
</table>
<p>{{.Company}}</p>
`))

// NewEmailService creates a new email service instance
func NewEmailService(config *EmailConfig, logger *logrus.Logger) (ports.EmailService, error) {
	client := sendgrid.NewSendClient(config.SendGridAPIKey)
	return &EmailService{
		config: config,
		logger: logger,
		client: client,
		tmpl:   orderConfirmationTemplate,
	}, nil
}

// SendOrderConfirmation renders and sends the order confirmation mail.
func (e *EmailService) SendOrderConfirmation(ctx context.Context, toEmail, toName string, o *order.Order) error {
	var body bytes.Buffer
	data := map[string]any{
		"Name":    toName,
		"Order":   o,
		"Company": e.config.CompanyName,
	}
	if err := e.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}

	subject := fmt.Sprintf("Your %s order confirmation", e.config.CompanyName)
	return e.sendEmail(toEmail, subject, body.String())
}

// sendEmail sends an email using SendGrid
func (e *EmailService) sendEmail(to, subject, htmlContent string) error {
	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail("", to)

	message := mail.NewSingleEmail(from, subject, recipient, "", htmlContent)

	response, err := e.client.Send(message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"error":   err,
		}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		e.logger.WithFields(logrus.Fields{
			"to":     to,
			"status": response.StatusCode,
		}).Error("SendGrid rejected email")
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}
