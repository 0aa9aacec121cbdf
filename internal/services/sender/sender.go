// Package services отправляет почтовые уведомления по заданиям
// из очередей: push-дайджесты чата и письма об истечении плана.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/smtp"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

type SenderService struct {
	transport Transport
	log       *slog.Logger
}

type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendInfoPlanExpiringTomorrow отправляет владельцу письмо о том,
// что его платный план истекает завтра.
func (s *SenderService) SendInfoPlanExpiringTomorrow(body []byte) error {
	var profile models.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{profile.Email}
	subject := "Tu plan vence mañana - Guía Comercial"
	bodyText := fmt.Sprintf("Hola %s!\n\nTu plan %q vence mañana. Renovalo desde tu panel para no perder la prioridad en el catálogo.",
		displayName(&profile), profile.PlanID)

	return s.sendEmail(to, subject, bodyText)
}

// SendInfoPlanExpired отправляет владельцу письмо о том, что его план
// истёк и публикации переведены на бесплатный тариф.
func (s *SenderService) SendInfoPlanExpired(body []byte) error {
	var profile models.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{profile.Email}
	subject := "Tu plan venció - Guía Comercial"
	bodyText := fmt.Sprintf("Hola %s!\n\nTu plan venció y tu cuenta pasó al plan gratuito. Podés reactivarlo en cualquier momento desde tu panel.",
		displayName(&profile))

	return s.sendEmail(to, subject, bodyText)
}

// SendPushDigest отправляет участникам переписки письмо о новом сообщении.
// Адресом получателя служит email, который воркер подставляет в задание.
func (s *SenderService) SendPushDigest(body []byte) error {
	var job models.PushJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}
	if len(job.Emails) == 0 {
		s.log.Info("push job has no resolved emails, skipping")
		return nil
	}

	subject := job.Title + " - Guía Comercial"
	bodyText := fmt.Sprintf("%s\n\nAbrí la conversación: %s", job.Body, job.URL)

	return s.sendEmail(job.Emails, subject, bodyText)
}

func displayName(profile *models.Profile) string {
	if profile.Nombre != "" {
		return profile.Nombre
	}
	return profile.Email
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
