package logger

import (
	"errors"
	"testing"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func TestNotifyAdmin(t *testing.T) {
	s := &fakeSender{}
	n := NewNotifier(s, 42, zap.NewNop())

	n.NotifyAdmin("heating is down")
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(42), s.sent[0].ChatID)
	assert.Equal(t, "[ALERT] heating is down", s.sent[0].Text)
}

func TestNotifyAdmin_NoChatConfigured(t *testing.T) {
	s := &fakeSender{}
	NewNotifier(s, 0, zap.NewNop()).NotifyAdmin("ignored")
	assert.Empty(t, s.sent)
}

func TestNotifyOnPanic(t *testing.T) {
	s := &fakeSender{}
	n := NewNotifier(s, 42, zap.NewNop())

	func() {
		defer n.NotifyOnPanic("HandleUpdate")
		panic(errors.New("boom"))
	}()

	require.Len(t, s.sent, 1)
	assert.Equal(t, "[ALERT] Panic in HandleUpdate: boom", s.sent[0].Text)
}
