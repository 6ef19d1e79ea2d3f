package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/db"
	"utility-telegram-bot/internal/metrics"
)

const billSubject = "Новые данные по коммунальным услугам"

type MailConfig struct {
	APIKey     string
	TemplateID string
	From       string
	To         string
}

// Mailer отправляет счёт через динамический шаблон SendGrid
type Mailer struct {
	cfg    MailConfig
	client *sendgrid.Client
	log    *zap.Logger
}

func NewMailer(cfg MailConfig, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, client: sendgrid.NewSendClient(cfg.APIKey), log: log}
}

// BuildBillMessage собирает письмо со счётом и показаниями
func BuildBillMessage(cfg MailConfig, bill *billing.Bill, latest *db.Reading) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", cfg.From))
	m.SetTemplateID(cfg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", cfg.To))
	p.Subject = billSubject
	for k, v := range bill.EmailData(latest) {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)
	return m
}

// SendBill отправляет письмо со счётом арендатора
func (m *Mailer) SendBill(ctx context.Context, bill *billing.Bill, latest *db.Reading) (err error) {
	if bill == nil {
		return errors.New("nil bill")
	}
	started := time.Now()
	defer func() { metrics.ObserveExternal("sendgrid", started, err) }()

	resp, err := m.client.SendWithContext(ctx, BuildBillMessage(m.cfg, bill, latest))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	m.log.Info("bill email sent", zap.Int64("user_id", bill.UserID), zap.String("to", m.cfg.To))
	return nil
}
