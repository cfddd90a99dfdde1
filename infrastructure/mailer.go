package infrastructure

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogMailer records outgoing mail in the log instead of sending it.
type LogMailer struct {
	siteURL string
	log     *logrus.Entry
}

func NewLogMailer(siteURL string, log *logrus.Entry) *LogMailer {
	return &LogMailer{siteURL: strings.TrimRight(siteURL, "/"), log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	link := m.siteURL + "/reset-password?token=" + url.QueryEscape(token)
	m.log.WithFields(logrus.Fields{
		"to":   email,
		"link": link,
	}).Info("password reset email")
	return nil
}
