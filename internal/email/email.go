package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/kafka"
)

const ownerTemplateText = `<html><body>
<h2>New transfer request {{.Reference}}</h2>
<p>{{.CustomerName}} ({{.CustomerEmail}}) requested a transfer for {{.Passengers}} passenger(s).</p>
<p>{{.PickupLocation}} &rarr; {{.DropoffLocation}}<br>
Pickup: {{.PickupTime.Format "Mon, 02 Jan 2006 15:04 MST"}}</p>
<p>
<a href="{{.AcceptURL}}">Accept</a> &nbsp;|&nbsp; <a href="{{.DenyURL}}">Deny</a>
</p>
<p>The links stay live until a decision is made.</p>
</body></html>`

const customerTemplateText = `<html><body>
<h2>Your transfer request {{.Reference}}</h2>
<p>Hello {{.CustomerName}},</p>
{{if .Accepted}}
<p>Your transfer {{.PickupLocation}} &rarr; {{.DropoffLocation}} on
{{.PickupTime.Format "Mon, 02 Jan 2006 15:04 MST"}} has been <strong>accepted</strong>.</p>
{{else}}
<p>Unfortunately we cannot serve your transfer {{.PickupLocation}} &rarr; {{.DropoffLocation}} on
{{.PickupTime.Format "Mon, 02 Jan 2006 15:04 MST"}}.</p>
{{end}}
</body></html>`

// Sender mails the owner decision links for new submissions and the customer
// the outcome of a decision. Failures are the caller's to log; the sender
// never touches booking state.
type Sender struct {
	dialer        *gomail.Dialer
	from          string
	ownerEmail    string
	publicBaseURL string
	ownerTmpl     *template.Template
	customerTmpl  *template.Template
	log           *logrus.Logger
}

func NewSender(cfg config.SMTPConfig, publicBaseURL string, log *logrus.Logger) *Sender {
	return &Sender{
		dialer:        gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:          cfg.From,
		ownerEmail:    cfg.OwnerEmail,
		publicBaseURL: publicBaseURL,
		ownerTmpl:     template.Must(template.New("owner").Parse(ownerTemplateText)),
		customerTmpl:  template.Must(template.New("customer").Parse(customerTemplateText)),
		log:           log,
	}
}

// Send routes a notification event to the right recipient.
func (s *Sender) Send(event kafka.BookingEvent) error {
	switch event.Type {
	case kafka.EventBookingSubmitted:
		return s.sendOwner(event)
	case kafka.EventBookingDecided:
		return s.sendCustomer(event)
	default:
		s.log.WithField("type", event.Type).Warn("ignoring unknown notification event type")
		return nil
	}
}

func (s *Sender) sendOwner(event kafka.BookingEvent) error {
	data := struct {
		kafka.BookingEvent
		AcceptURL string
		DenyURL   string
	}{
		BookingEvent: event,
		AcceptURL:    fmt.Sprintf("%s/accept/%s", s.publicBaseURL, event.AcceptToken),
		DenyURL:      fmt.Sprintf("%s/deny/%s", s.publicBaseURL, event.DenyToken),
	}

	subject := fmt.Sprintf("Transfer request %s: %s -> %s", event.Reference, event.PickupLocation, event.DropoffLocation)
	return s.send(s.ownerEmail, subject, s.ownerTmpl, data)
}

func (s *Sender) sendCustomer(event kafka.BookingEvent) error {
	data := struct {
		kafka.BookingEvent
		Accepted bool
	}{
		BookingEvent: event,
		Accepted:     event.Status == "ACCEPTED",
	}

	subject := fmt.Sprintf("Your transfer request %s", event.Reference)
	return s.send(event.CustomerEmail, subject, s.customerTmpl, data)
}

func (s *Sender) send(to, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
