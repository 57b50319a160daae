package mailer

import (
	"fmt"
	"net/url"
	"strings"
)

// Message is a composed email.
type Message struct {
	Subject string
	Body    string
}

// Composer builds the account emails. Links point at the API so they work without
// a separate frontend.
type Composer struct {
	baseURL string
}

func NewComposer(baseURL string) *Composer {
	return &Composer{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Composer) link(path, token string) string {
	return c.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (c *Composer) Verification(name, token string) Message {
	return Message{
		Subject: "Verify your Aklny account",
		Body: fmt.Sprintf("Hi %s,\n\nWelcome to Aklny! Please confirm your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours.\n",
			name, c.link("/api/auth/verify-email", token)),
	}
}

func (c *Composer) PasswordReset(name, token string) Message {
	return Message{
		Subject: "Reset your Aklny password",
		Body: fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password. Open the link below to choose a new one:\n\n%s\n\nThe link expires in 1 hour. If you did not ask for this, you can ignore this email.\n",
			name, c.link("/api/auth/reset-password", token)),
	}
}

func (c *Composer) PasswordChanged(name string) Message {
	return Message{
		Subject: "Your Aklny password was changed",
		Body:    fmt.Sprintf("Hi %s,\n\nYour password was just changed and every other session was signed out.\n", name),
	}
}
