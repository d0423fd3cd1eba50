package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/pkg/config"
)

func TestNewPicksDriver(t *testing.T) {
	assert.IsType(t, &SMTPMailer{}, New(config.MailConfig{Driver: config.MailDriverSMTP, Host: "smtp.example.com", Port: 587}, zap.NewNop()))
	assert.IsType(t, &LogMailer{}, New(config.MailConfig{Driver: config.MailDriverLog}, nil))
}

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "no-reply@example.com"})

	var gotAddr string
	var gotTo []string
	var gotBody string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "student@example.com", Subject: "Verification code", Body: "code: Ab3dE9z"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"student@example.com"}, gotTo)
	assert.True(t, strings.HasSuffix(gotBody, "code: Ab3dE9z"))
	assert.Contains(t, gotBody, "From: no-reply@example.com\r\n")
}

func TestSMTPMailerRejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }

	err := m.Send(context.Background(), Message{To: "a@example.com\r\nBcc: b@example.com"})
	assert.Error(t, err)
}

func TestSMTPMailerWrapsSendError(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 try later") }

	err := m.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorContains(t, err, "421 try later")
}
