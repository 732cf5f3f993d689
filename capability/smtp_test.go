package capability

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestSMTPConfig_Validate(t *testing.T) {
	if err := (SMTPConfig{}).Validate(); err == nil {
		t.Fatal("empty config should fail")
	}
	if _, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 70000, Username: "u"}); err == nil {
		t.Fatal("bad port should fail")
	}
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "bot@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if m.cfg.From != "bot@example.com" || m.cfg.Timeout != 30*time.Second {
		t.Errorf("defaults not applied: %+v", m.cfg)
	}
}

func TestSMTPMailer_Compose(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 465, From: "bot@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	m.now = func() time.Time { return testNow }

	body := strings.Repeat("Weather for 杭州 is light rain. ", 10)
	raw := string(m.compose(Message{To: "mom@example.com", ToName: "mom", Subject: "Weather for 杭州", Body: body}))

	head, encoded, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header/body separator:\n%s", raw)
	}
	for _, want := range []string{
		"From: <bot@example.com>",
		`To: "mom" <mom@example.com>`,
		"Subject: =?utf-8?q?",
		"Date: Mon, 19 Oct 2026 09:15:00 +0000",
		"Message-ID: <",
		"Content-Transfer-Encoding: base64",
	} {
		if !strings.Contains(head, want) {
			t.Errorf("header missing %q:\n%s", want, head)
		}
	}

	lines := strings.Split(strings.TrimSpace(encoded), "\r\n")
	for _, l := range lines {
		if len(l) > 76 {
			t.Errorf("body line too long: %d", len(l))
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(lines, ""))
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != body {
		t.Errorf("decoded body = %q", decoded)
	}
}
