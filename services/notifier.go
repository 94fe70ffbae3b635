// File: /services/notifier.go
package services

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"sushicount-api/config"
	"sushicount-api/models"
)

// Notifier tells users about social events. Callers log failures and carry on.
type Notifier interface {
	FriendRequestReceived(ctx context.Context, from, to models.UserSummary) error
}

type NopNotifier struct{}

func (NopNotifier) FriendRequestReceived(context.Context, models.UserSummary, models.UserSummary) error {
	return nil
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailNotifier struct {
	sender    mailSender
	fromEmail string
	fromName  string
}

func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{
		sender:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// NewNotifier returns an EmailNotifier when SMTP is configured and a NopNotifier otherwise.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.EmailEnabled() {
		return NewEmailNotifier(cfg)
	}
	return NopNotifier{}
}

func (n *EmailNotifier) FriendRequestReceived(ctx context.Context, from, to models.UserSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.Email == "" {
		return fmt.Errorf("recipient %s has no email address", to.ID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail))
	m.SetHeader("To", to.Email)
	m.SetHeader("Subject", fmt.Sprintf("SushiCount - %s wants to be your friend", from.Name))

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New friend request</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: #e4572e; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🍣 SushiCount</h1>
        </div>
        <div class="content">
            <h2>Hello %s!</h2>
            <p><strong>%s</strong> sent you a friend request.</p>
            <p>Open SushiCount to accept or decline it.</p>
        </div>
    </div>
</body>
</html>`, html.EscapeString(to.Name), html.EscapeString(from.Name))

	textBody := fmt.Sprintf(`
Hello %s!

%s sent you a friend request.

Open SushiCount to accept or decline it.
`, to.Name, from.Name)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send friend request email to %s: %w", to.Email, err)
	}
	return nil
}
