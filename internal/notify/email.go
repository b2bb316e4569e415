package notify

import (
	"context"

	"lookout/pkg/email"
	"lookout/pkg/logging"
)

// EmailNotifier dispatches rendered briefing documents over SMTP.
type EmailNotifier struct {
	sender     *email.Sender
	smtpConfig email.Config
	logger     logging.Logger
}

func NewEmailNotifier(cfg email.Config, logger logging.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:     email.NewSender(cfg),
		smtpConfig: cfg,
		logger:     logger,
	}
}

func (n *EmailNotifier) IsConfigured() bool {
	return n.smtpConfig.Host != "" && n.smtpConfig.From != ""
}

func (n *EmailNotifier) Send(ctx context.Context, to, subject, document string) error {
	if err := n.sender.SendMail(ctx, to, subject, document); err != nil {
		n.logger.WithFields(logging.Fields{
			"error": err.Error(),
			"to":    to,
		}).Error("Failed to send briefing email")
		return err
	}

	n.logger.WithField("to", to).Info("Briefing email sent")
	return nil
}
