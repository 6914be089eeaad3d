package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/creditfolio/src/config"
	"github.com/username/creditfolio/src/logger"
)

// EmailService notifies a client when their report audit finishes and
// delivers the rendered dispute letters. Certified-mail dispatch of the
// letters themselves is an external collaborator.
type EmailService interface {
	SendAuditCompleteEmail(toEmail, clientName string, violationCount int) error
	SendDisputeLettersEmail(toEmail, clientName string, letters []DisputeLetter) error
}

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:            mg,
			senderEmail:   config.Cfg.SenderEmail,
			senderName:    config.Cfg.SenderName,
			portalBaseURL: config.Cfg.PortalBaseURL,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
			SenderName:   config.Cfg.SenderName,
		}
	default:
		return &MockEmailService{}
	}
}

type MailgunEmailService struct {
	mg            mailgun.Mailgun
	senderEmail   string
	senderName    string
	portalBaseURL string
}

func (s *MailgunEmailService) SendAuditCompleteEmail(toEmail, clientName string, violationCount int) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Your credit report audit is ready"

	plainTextBody := fmt.Sprintf(`Hi %s,

We finished reviewing your credit report and found %d potential reporting
issues across your accounts. You can review the full results in your
client portal:
%s

Thanks,
The Creditfolio Team`, clientName, violationCount, s.portalBaseURL)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>We finished reviewing your credit report and found <b>%d</b> potential reporting issues across your accounts.</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: bold; padding: 10px 15px; border: 1px solid #1a73e8; border-radius: 4px; background-color: #e8f0fe;">Open Client Portal</a></p>
			<p>Thanks,<br>The Creditfolio Team</p>
		</body>
	</html>`, clientName, violationCount, s.portalBaseURL)

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("audit-complete")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send audit-complete email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Audit-complete email sent successfully via Mailgun", "to", toEmail, "id", id)
	return nil
}

func (s *MailgunEmailService) SendDisputeLettersEmail(toEmail, clientName string, letters []DisputeLetter) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Your dispute letters are ready to review"

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\nYour dispute letters are ready. Review each one below before it is mailed.\n", clientName)
	for _, letter := range letters {
		fmt.Fprintf(&body, "\n===== %s =====\n\n%s\n", letter.Bureau, letter.Body)
	}
	fmt.Fprintf(&body, "\nThanks,\nThe Creditfolio Team\n")

	message := s.mg.NewMessage(from, subject, body.String(), toEmail)
	message.AddTag("dispute-letters")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send dispute letters via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for dispute letters: %w. Response: %s", err, resp)
	}
	logger.L.Info("Dispute letters email sent successfully via Mailgun", "to", toEmail, "id", id, "letters", len(letters))
	return nil
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
	SenderName   string
}

func (s *SMTPEmailService) SendAuditCompleteEmail(toEmail, clientName string, violationCount int) error {
	body := fmt.Sprintf("Hi %s,\n\nWe finished reviewing your credit report and found %d potential reporting issues.\n\nThanks,\nThe Creditfolio Team\n", clientName, violationCount)
	return s.send(toEmail, "Your credit report audit is ready", body)
}

func (s *SMTPEmailService) SendDisputeLettersEmail(toEmail, clientName string, letters []DisputeLetter) error {
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\nYour dispute letters are ready.\n", clientName)
	for _, letter := range letters {
		fmt.Fprintf(&body, "\n===== %s =====\n\n%s\n", letter.Bureau, letter.Body)
	}
	return s.send(toEmail, "Your dispute letters are ready to review", body.String())
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.SenderName, s.SenderEmail, toEmail, subject, body)
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(msg)); err != nil {
		logger.L.Error("Failed to send email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("smtp send failed: %w", err)
	}
	logger.L.Info("Email sent successfully via SMTP", "to", toEmail, "subject", subject)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendAuditCompleteEmail(toEmail, clientName string, violationCount int) error {
	logger.L.Info("MockEmailService: Would send audit-complete email.",
		"to", toEmail, "clientName", clientName, "violationCount", violationCount)
	return nil
}

func (m *MockEmailService) SendDisputeLettersEmail(toEmail, clientName string, letters []DisputeLetter) error {
	logger.L.Info("MockEmailService: Would send dispute letters email.",
		"to", toEmail, "clientName", clientName, "letters", len(letters))
	return nil
}
