package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"pricewatch/pkg/htmlutil"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Email sends reports as plain text mail.
type Email struct {
	config SmtpConfig
	send   func(mail *email.Email, addr string, auth smtp.Auth) error
}

func NewEmail(config SmtpConfig) Email {
	return Email{
		config: config,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func (e Email) compose(text string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Monitor de Precios <%s>", e.config.EmailAddress)
	mail.To = e.config.To
	mail.Subject = "Cambios de precios detectados"
	mail.Text = []byte(htmlutil.StripTags(text))
	return mail
}

func (e Email) Notify(ctx context.Context, text string) error {
	mail := e.compose(text)
	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)

	err := e.send(
		mail, addr,
		smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
