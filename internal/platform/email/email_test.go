package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"ptoinfo/internal/platform/config"
)

func TestBuildMessageHeaders(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("hr@example.com", "emp@example.com", "Success\r\nBcc: x@example.com", "Leave request created successfully", now))

	for _, want := range []string{
		"From: hr@example.com\r\n",
		"To: emp@example.com\r\n",
		"Subject: Success  Bcc: x@example.com\r\n",
		"Date: " + now.Format(time.RFC1123Z),
		"@example.com>",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\nLeave request created successfully") {
		t.Fatalf("unexpected body framing:\n%s", msg)
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if err := mailer.Send(context.Background(), "a@example.com", "b@example.com", "s", "b"); err != nil {
		t.Fatalf("noop mailer returned %v", err)
	}
}
