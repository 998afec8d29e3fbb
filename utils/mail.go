package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Kariqs/eden-store-api/models"
)

// MailSettings configures the SMTP relay used for order notifications.
type MailSettings struct {
	Enabled      bool
	FromEmail    string
	Password     string
	SMTPHost     string
	SMTPAddress  string
	TemplatePath string
}

type OrderEmailLine struct {
	Title    string
	Quantity int
	Price    string
	Subtotal string
}

type OrderEmailData struct {
	Name    string
	OrderID string
	Status  string
	Total   string
	Message string
	Items   []OrderEmailLine
}

const defaultOrderTemplate = `<html><body>
<p>Hello {{.Name}},</p>
<p>{{.Message}}</p>
<p>Order <strong>{{.OrderID}}</strong> is now <strong>{{.Status}}</strong>.</p>
<table>
{{range .Items}}<tr><td>{{.Title}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Subtotal}}</td></tr>
{{end}}</table>
<p>Total: {{.Total}}</p>
</body></html>`

var errNoRecipient = errors.New("order has no customer email")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends order notification emails over SMTP.
type Mailer struct {
	settings MailSettings
	tmpl     *template.Template
	send     sendFunc
}

func NewMailer(settings MailSettings) (*Mailer, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if settings.TemplatePath != "" {
		tmpl, err = template.ParseFiles(settings.TemplatePath)
	} else {
		tmpl, err = template.New("order").Parse(defaultOrderTemplate)
	}
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}
	return &Mailer{settings: settings, tmpl: tmpl, send: smtp.SendMail}, nil
}

// NewOrderEmailData describes order for the notification template.
func NewOrderEmailData(order *models.Order, message string) OrderEmailData {
	name := "customer"
	if order.User != nil {
		name = order.User.FullName()
	} else if email := order.CustomerEmail(); email != "" {
		name = email
	}
	data := OrderEmailData{
		Name:    name,
		OrderID: order.ID.String(),
		Status:  order.Status.String(),
		Total:   order.TotalAmount.StringFixed(2),
		Message: message,
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, OrderEmailLine{
			Title:    item.Snapshot().Title,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}
	return data
}

// SendOrderEmail renders the order template and sends it to the order's
// customer email. Disabled mailers return nil without sending.
func (m *Mailer) SendOrderEmail(ctx context.Context, order *models.Order, subject, message string) error {
	if !m.settings.Enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to := order.CustomerEmail()
	if to == "" {
		return errNoRecipient
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, NewOrderEmailData(order, message)); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.settings.FromEmail,
		to,
		subject,
		body.String(),
	)

	auth := smtp.PlainAuth("", m.settings.FromEmail, m.settings.Password, m.settings.SMTPHost)
	if err := m.send(m.settings.SMTPAddress, auth, m.settings.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
