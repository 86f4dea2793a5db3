package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationLog_Redact(t *testing.T) {
	log, logs := newObserved()
	w := newConversationLog(log)

	_, _ = w.Write([]byte("250-AUTH PLAIN LOGIN\r\n250 OK\r\n"))
	_, _ = w.Write([]byte("AUTH LOGIN\r\n334 VXNlcm5hbWU6\r\ndXNlcg=="))
	_, _ = w.Write([]byte("\r\n334 UGFzc3dvcmQ6\r\ncGFzcw==\r\n235 2.7.0 ok\r\nMAIL FROM:<a@b.c>\r\n"))
	w.Flush()

	var lines []string
	for _, e := range logs.All() {
		lines = append(lines, e.ContextMap()["line"].(string))
	}
	assert.Equal(t, []string{
		"250-AUTH PLAIN LOGIN",
		"250 OK",
		"AUTH LOGIN",
		"334 VXNlcm5hbWU6",
		redacted,
		"334 UGFzc3dvcmQ6",
		redacted,
		"235 2.7.0 ok",
		"MAIL FROM:<a@b.c>",
	}, lines)
}

func TestIsReply(t *testing.T) {
	assert.True(t, isReply("250 OK"))
	assert.True(t, isReply("250-SIZE"))
	assert.True(t, isReply("354"))
	assert.False(t, isReply("dXNlcg=="))
	assert.False(t, isReply("12"))
	assert.False(t, isReply("1234"))
}
