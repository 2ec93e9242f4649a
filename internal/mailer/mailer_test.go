package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostDefaultsToGmail(t *testing.T) {
	assert.Equal(t, "smtp.gmail.com", Config{}.Host())
	assert.Equal(t, "smtp.acme.example", Config{SMTPHost: "smtp.acme.example"}.Host())
}

func TestDisabledConfigIsDryRun(t *testing.T) {
	sent, err := Send(Config{EnableSend: false}, "subject", "<html></html>")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestMissingSenderIsError(t *testing.T) {
	_, err := Send(Config{EnableSend: true, Recipients: []string{"a@example.com"}}, "s", "h")
	assert.Error(t, err)
}

func TestMissingRecipientsIsError(t *testing.T) {
	_, err := Send(Config{EnableSend: true, Sender: "me@example.com"}, "s", "h")
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("me@example.com", []string{"a@example.com", "b@example.com"},
		"일일 리포트", "<h1>hi</h1>"))

	assert.True(t, strings.HasPrefix(msg, "From: me@example.com\r\n"))
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"utf-8\"\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n<h1>hi</h1>"))
}
