package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/projectannie/contactd/internal/config"
	"github.com/projectannie/contactd/internal/contact"
)

func TestTestMessageRecipient(t *testing.T) {
	cfg := &config.Config{}
	msg := testMessage(cfg, "")
	assert.Equal(t, contact.DefaultTo, msg.To)
	assert.Equal(t, contact.DefaultFrom, msg.From)

	cfg.ContactEmail = "ops@example.org"
	assert.Equal(t, "ops@example.org", testMessage(cfg, "").To)
	assert.Equal(t, "me@example.org", testMessage(cfg, "me@example.org").To)
}

func TestNotifyConfig(t *testing.T) {
	cfg := &config.Config{
		NotifyProvider:   "telegram",
		TelegramBotToken: "token",
		TelegramChatID:   "42",
		DispatchTimeout:  3 * time.Second,
	}
	nc := notifyConfig(cfg)
	assert.Equal(t, "telegram", nc.Provider)
	assert.Equal(t, "token", nc.TelegramBotToken)
	assert.Equal(t, "42", nc.TelegramChatID)
	assert.Equal(t, 3*time.Second, nc.Timeout)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["notify-test"])
	assert.True(t, names["version"])
	assert.NotNil(t, notifyTestCmd.Flags().Lookup("to"))
}
