package email

import (
	"context"
	"testing"
)

func TestSanitizeHeader(t *testing.T) {
	got := sanitizeHeader("Subject\r\nBcc: attacker@example.com")
	if got != "SubjectBcc: attacker@example.com" {
		t.Fatalf("header injection not stripped: %q", got)
	}
}

func TestSendMail_CancelledContext(t *testing.T) {
	sender := NewSender(Config{Host: "localhost", Port: "2525", From: "x@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.SendMail(ctx, "to@example.com", "subject", "<p>hi</p>"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
