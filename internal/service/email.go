package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type emailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailService(host string, port int, username, password, from string) EmailService {
	return &emailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *emailService) SendJoinRequestNotification(ctx context.Context, ownerEmail, applicantName, sessionTitle string) error {
	subject := fmt.Sprintf("New join request for %s", sessionTitle)
	body := fmt.Sprintf("%s has asked to join your study session \"%s\".\n\nOpen StudyHub to approve or reject the request.\n\nThe StudyHub Team", applicantName, sessionTitle)
	return s.send(ownerEmail, subject, body)
}

func (s *emailService) SendAdmissionDecision(ctx context.Context, email, name, sessionTitle string, approved bool) error {
	var subject, body string
	if approved {
		subject = fmt.Sprintf("You're in: %s", sessionTitle)
		body = fmt.Sprintf("Hello %s,\n\nYour request to join \"%s\" was approved. See you there!\n\nThe StudyHub Team", name, sessionTitle)
	} else {
		subject = fmt.Sprintf("Join request update for %s", sessionTitle)
		body = fmt.Sprintf("Hello %s,\n\nYour request to join \"%s\" was declined by the session owner.\n\nThe StudyHub Team", name, sessionTitle)
	}
	return s.send(email, subject, body)
}

func (s *emailService) SendPendingApprovalsReminder(ctx context.Context, ownerEmail, sessionTitle string, pendingCount int) error {
	subject := fmt.Sprintf("%d pending join request(s) for %s", pendingCount, sessionTitle)
	body := fmt.Sprintf("Your study session \"%s\" has %d join request(s) waiting for a decision.\n\nThe StudyHub Team", sessionTitle, pendingCount)
	return s.send(ownerEmail, subject, body)
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}
