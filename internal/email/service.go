package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shopspring/decimal"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send SendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// WithSendFunc swaps the transport, mostly for tests.
func (s *Service) WithSendFunc(fn SendFunc) *Service {
	s.send = fn
	return s
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to string, c Confirmation) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("order %s: no recipient", c.OrderNumber)
	}
	subject := fmt.Sprintf("Order confirmation %s", c.OrderNumber)
	return s.deliver(to, subject, BuildOrderConfirmationBody(c))
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Confirmation is what the order confirmation mail shows.
type Confirmation struct {
	OrderNumber string
	Items       []OrderItem
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
	Currency    string
}
