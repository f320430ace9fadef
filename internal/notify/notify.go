// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify delivers new-comment notifications to the site owner.
// Delivery is fire-and-forget: a failed notification is logged and never
// blocks or fails the comment submission that triggered it.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Notifier announces a newly submitted comment to the site owner.
type Notifier interface {
	// CommentReceived reports a new comment on the named post. pending
	// indicates the comment is held for review rather than auto-published.
	CommentReceived(postTitle, author, content string, pending bool) error
}

// SMTPNotifier sends notification emails through a plain SMTP relay.
type SMTPNotifier struct {
	host string
	port string
	auth smtp.Auth
	from string
	to   string
}

// NewSMTPNotifier creates a notifier that delivers via the given relay.
// user may be empty for relays that accept unauthenticated mail.
func NewSMTPNotifier(host, port, user, pass, from, to string) *SMTPNotifier {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPNotifier{host: host, port: port, auth: auth, from: from, to: to}
}

// CommentReceived sends a short plain-text email describing the comment.
func (n *SMTPNotifier) CommentReceived(postTitle, author, content string, pending bool) error {
	state := "published"
	if pending {
		state = "held for review"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.to)
	fmt.Fprintf(&msg, "Subject: New comment on %q (%s)\r\n", postTitle, state)
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "%s commented on %q:\r\n\r\n%s\r\n", author, postTitle, content)

	addr := n.host + ":" + n.port
	if err := smtp.SendMail(addr, n.auth, n.from, []string{n.to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send comment notification: %w", err)
	}
	return nil
}

// LogNotifier records notifications in the server log instead of sending
// email. Used when no SMTP relay is configured.
type LogNotifier struct{}

// CommentReceived logs the comment metadata at info level.
func (LogNotifier) CommentReceived(postTitle, author, content string, pending bool) error {
	slog.Info("new comment received",
		"post", postTitle,
		"author", author,
		"pending", pending,
	)
	return nil
}
