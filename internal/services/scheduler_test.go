package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/db"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

type schedulerFixture struct {
	sched    *Scheduler
	bot      *fakeBot
	users    *db.UserStore
	readings *db.ReadingStore
	ledger   *db.PaymentLedger
}

func newSchedulerFixture(t *testing.T, now time.Time) schedulerFixture {
	t.Helper()
	conn, err := db.Open(db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), conn))
	t.Cleanup(func() { _ = db.Close(conn) })

	f := schedulerFixture{
		bot:      &fakeBot{},
		users:    db.NewUserStore(conn, "renter"),
		readings: db.NewReadingStore(conn),
		ledger:   db.NewPaymentLedger(conn),
	}
	f.sched = NewScheduler(SchedulerDeps{
		Bot:           f.bot,
		Users:         f.users,
		Readings:      f.readings,
		Ledger:        f.ledger,
		OwnerUsername: "owner",
		Location:      time.UTC,
		Logger:        zap.NewNop(),
		Now:           func() time.Time { return now },
	})
	return f
}

func TestRemindRenter(t *testing.T) {
	now := time.Date(2026, 3, 25, 10, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	ctx := context.Background()

	// арендатора ещё нет
	require.NoError(t, f.sched.RemindRenter(ctx))
	assert.Empty(t, f.bot.sent)

	_, _, err := f.users.Ensure(ctx, db.TelegramProfile{ID: 7, ChatID: 70, Username: "renter"})
	require.NoError(t, err)

	require.NoError(t, f.sched.RemindRenter(ctx))
	require.Len(t, f.bot.sent, 2)
	assert.Equal(t, int64(70), f.bot.sent[0].ChatID)

	_, err = f.readings.RecordReading(ctx, 7, db.KindElectricity, "10", now.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.NoError(t, f.sched.RemindRenter(ctx))
	assert.Len(t, f.bot.sent, 2)
}

func TestMarkCurrentMonthPaid(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	ctx := context.Background()

	_, _, err := f.users.Ensure(ctx, db.TelegramProfile{ID: 1, ChatID: 100, Username: "owner"})
	require.NoError(t, err)

	require.NoError(t, f.sched.MarkCurrentMonthPaid(ctx))
	require.NoError(t, f.sched.MarkCurrentMonthPaid(ctx))

	paid, err := f.ledger.IsPaid(ctx, 2026, 4)
	require.NoError(t, err)
	assert.True(t, paid)
	require.Len(t, f.bot.sent, 2)
	assert.Contains(t, f.bot.sent[0].Text, "Апрель 2026")
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	f := newSchedulerFixture(t, time.Now())
	assert.Error(t, f.sched.Register("not a cron spec", "", ""))
	assert.NoError(t, f.sched.Register("0 10 25 * *", "0 9 1 * *", ""))
}

func TestBuildBillMessage(t *testing.T) {
	bill := &billing.Bill{
		FlatPrice:        decimal.NewFromInt(200),
		ExchangeRate:     decimal.RequireFromString("27"),
		Flat:             decimal.NewFromInt(5400),
		Water:            decimal.RequireFromString("47.24"),
		Total:            decimal.RequireFromString("5811.64"),
		HeatingAvailable: false,
	}
	cfg := MailConfig{TemplateID: "d-123", From: "bot@example.com", To: "owner@example.com"}

	m := BuildBillMessage(cfg, bill, &db.Reading{Electricity: 120, Gas: 30, Water: 10})
	assert.Equal(t, "d-123", m.TemplateID)
	assert.Equal(t, "bot@example.com", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "owner@example.com", p.To[0].Address)
	assert.Equal(t, "5812", p.DynamicTemplateData["total"])
	assert.Equal(t, "47.2", p.DynamicTemplateData["water"])
	assert.Equal(t, "n/a", p.DynamicTemplateData["heating"])
	assert.Equal(t, "120", p.DynamicTemplateData["electricity_counter"])
}
