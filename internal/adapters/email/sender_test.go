package email

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNoopSender(t *testing.T) {
	s := NewNoopSender()
	r, err := s.Send(context.Background(), Message{To: []string{"lider@example.org"}, Subject: "Reporte"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(r.MessageID, "noop-") || r.SentAt.IsZero() {
		t.Errorf("receipt = %+v", r)
	}
	if _, err := s.Send(context.Background(), Message{Subject: "x"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("Send without recipients err = %v, want ErrNoRecipients", err)
	}
}

// TestResendSender_Request verifies the default from address and body mapping.
func TestResendSender_Request(t *testing.T) {
	s := NewResendSender("re_test", "Roster <reportes@example.org>")
	req := s.request(Message{To: []string{"a@example.org"}, Subject: "S", HTML: "<p>h</p>", Text: "h"})
	if req.From != "Roster <reportes@example.org>" || req.Html != "<p>h</p>" || req.Text != "h" {
		t.Errorf("request = %+v", req)
	}
	req = s.request(Message{From: "other@example.org"})
	if req.From != "other@example.org" {
		t.Errorf("From override = %q", req.From)
	}
	if _, err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("Send without recipients err = %v", err)
	}
}
