// internal/pkg/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
)

// Service renders and sends transactional emails
type Service struct {
	config    *config.Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(cfg *config.Config) *Service {
	service := &Service{
		config:    cfg,
		templates: make(map[string]*template.Template),
	}
	service.loadTemplates()
	return service
}

// SendEmail sends an email using the configured provider
func (s *Service) SendEmail(email *Email) error {
	switch s.config.Email.Provider {
	case "smtp":
		return s.sendSMTPEmail(email)
	case "log":
		// Development provider: log instead of sending.
		logrus.WithFields(logrus.Fields{
			"to":      email.To,
			"subject": email.Subject,
			"type":    email.Type,
		}).Info("email (log provider)")
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Email.Provider)
	}
}

// SendOrderConfirmation sends the order confirmation email
func (s *Service) SendOrderConfirmation(to string, data OrderConfirmationData) error {
	data.TemplateData = GetBaseTemplateData(s.config.App.CompanyName, data.UserName, to)

	htmlContent, err := s.renderTemplate("order_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.SendEmail(&Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Order Confirmation - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
	})
}

// SendOrderCancellation sends the cancellation email to the customer
func (s *Service) SendOrderCancellation(to string, data OrderCancellationData) error {
	data.TemplateData = GetBaseTemplateData(s.config.App.CompanyName, data.UserName, to)

	htmlContent, err := s.renderTemplate("order_cancellation", data)
	if err != nil {
		return fmt.Errorf("failed to render order cancellation template: %w", err)
	}

	return s.SendEmail(&Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Order Cancelled - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderCancellation,
	})
}

// SendAdminCancellationAlert notifies the operations inbox about a
// cancellation
func (s *Service) SendAdminCancellationAlert(to string, data OrderCancellationData) error {
	data.TemplateData = GetBaseTemplateData(s.config.App.CompanyName, "Admin", to)

	htmlContent, err := s.renderTemplate("order_cancellation", data)
	if err != nil {
		return fmt.Errorf("failed to render order cancellation template: %w", err)
	}

	return s.SendEmail(&Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("[Alert] Order Cancelled - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeAdminAlert,
	})
}

// SendOrderStatusUpdate sends an order status change notification
func (s *Service) SendOrderStatusUpdate(to string, data OrderStatusUpdateData) error {
	data.TemplateData = GetBaseTemplateData(s.config.App.CompanyName, data.UserName, to)

	htmlContent, err := s.renderTemplate("order_status_update", data)
	if err != nil {
		return fmt.Errorf("failed to render order status update template: %w", err)
	}

	return s.SendEmail(&Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Order Update - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderStatusUpdate,
	})
}

// loadTemplates registers the built-in templates
func (s *Service) loadTemplates() {
	for name, body := range builtinTemplates {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			logrus.WithError(err).WithField("template", name).Warn("failed to parse email template")
			continue
		}
		s.templates[name] = tmpl
	}
}

// renderTemplate renders an email template with data
func (s *Service) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

var builtinTemplates = map[string]string{
	"order_confirmation": `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{.UserName}},</p>
        <p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
        <table style="width: 100%; border-collapse: collapse;">
            {{range .Items}}
            <tr>
                <td style="padding: 4px 0;">{{.Name}} × {{.Quantity}}</td>
                <td style="text-align: right;">{{.Total}}</td>
            </tr>
            {{end}}
            <tr>
                <td style="padding-top: 8px; font-weight: bold;">Total</td>
                <td style="padding-top: 8px; text-align: right; font-weight: bold;">{{.OrderTotal}}</td>
            </tr>
        </table>
        <p>Payment method: {{.PaymentMethod}}</p>
        <p>Best regards,<br>{{.SiteName}} Team</p>
        <hr>
        <p style="font-size: 12px; color: #666;">© {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`,
	"order_cancellation": `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{.UserName}},</p>
        <p>Order <strong>{{.OrderNumber}}</strong> has been cancelled.</p>
        {{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
        {{if .RefundAmount}}<p>A refund of {{.RefundAmount}} is {{.RefundStatus}}.</p>{{end}}
        <p>Best regards,<br>{{.SiteName}} Team</p>
        <hr>
        <p style="font-size: 12px; color: #666;">© {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`,
	"order_status_update": `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{.UserName}},</p>
        <p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
        {{if .StatusMessage}}<p>{{.StatusMessage}}</p>{{end}}
        <p>Best regards,<br>{{.SiteName}} Team</p>
        <hr>
        <p style="font-size: 12px; color: #666;">© {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`,
}
