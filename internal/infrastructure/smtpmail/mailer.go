package smtpmail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool
}

// Mailer sends purchase confirmations over plain SMTP. When disabled it
// reports success without sending, so checkout flows behave identically in
// environments without a mail relay.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) SendPurchaseConfirmation(ctx context.Context, email string, items []domain.ResolvedArtwork) error {
	_ = ctx
	if !m.cfg.Enabled {
		return nil
	}
	if email == "" {
		return fmt.Errorf("smtp mailer: recipient email is empty")
	}

	msg := buildMessage(m.cfg.From, email, items)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, msg); err != nil {
		return fmt.Errorf("smtp mailer: send to %s: %w", email, err)
	}
	return nil
}

func buildMessage(from, to string, items []domain.ResolvedArtwork) []byte {
	var total float64
	var lines []string
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
		lines = append(lines, fmt.Sprintf("<li>%d x %s: $%.2f</li>", item.Quantity, item.Name, item.Price))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your purchase confirmation\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString("<p>Thank you for your purchase.</p>")
	b.WriteString("<ul>")
	for _, line := range lines {
		b.WriteString(line)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Total: $%.2f</p>", total)
	b.WriteString("</body></html>")
	return []byte(b.String())
}
