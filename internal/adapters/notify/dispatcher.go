// Package notify renders and sends the service's emails.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Dispatcher sends match and intake notifications. Calls are independent;
// a failure of one never affects another.
type Dispatcher interface {
	NotifySeeker(ctx context.Context, seeker, candidate model.Profile, score float64) error
	NotifyCandidate(ctx context.Context, candidate, seeker model.Profile, score float64) error
	Welcome(ctx context.Context, p model.Profile) error
}

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type mail struct {
	subject string
	tmpl    *template.Template
}

// Template keys.
const (
	mailSeekerMatch      = "seeker_match"
	mailCandidateMatch   = "candidate_match"
	mailWelcomeSeeker    = "welcome_seeker"
	mailWelcomeCandidate = "welcome_candidate"
)

var subjects = map[string]string{
	mailSeekerMatch:      "Your designer match is ready",
	mailCandidateMatch:   "You've been matched with a new project",
	mailWelcomeSeeker:    "You're in!",
	mailWelcomeCandidate: "You're in the designer playground",
}

// view is the data every template renders against.
type view struct {
	Recipient   model.Profile
	Counterpart model.Profile
	Percent     int
}

// MailDispatcher renders templates and hands them to a Mailer.
type MailDispatcher struct {
	mailer Mailer
	logger logger.Logger
	mails  map[string]mail
}

// DispatcherOption applies a configuration option to the MailDispatcher.
type DispatcherOption func(*MailDispatcher)

// WithDispatcherLogger sets a custom logger for the dispatcher.
func WithDispatcherLogger(l logger.Logger) DispatcherOption {
	return func(d *MailDispatcher) {
		if l != nil {
			d.logger = l.Named("notify")
		}
	}
}

// NewMailDispatcher parses the embedded templates.
func NewMailDispatcher(mailer Mailer, opts ...DispatcherOption) (*MailDispatcher, error) {
	d := &MailDispatcher{
		mailer: mailer,
		logger: logger.Nop(),
		mails:  make(map[string]mail, len(subjects)),
	}
	for _, opt := range opts {
		opt(d)
	}

	funcs := template.FuncMap{
		"text": func(p model.Profile, name string) string { return p.Text(name) },
	}
	for key, subject := range subjects {
		t, err := template.New(key + ".html").Funcs(funcs).ParseFS(templateFS, "templates/"+key+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", key, err)
		}
		d.mails[key] = mail{subject: subject, tmpl: t}
	}
	return d, nil
}

// NotifySeeker tells the seeker about their match.
func (d *MailDispatcher) NotifySeeker(ctx context.Context, seeker, candidate model.Profile, score float64) error {
	return d.send(ctx, mailSeekerMatch, view{Recipient: seeker, Counterpart: candidate, Percent: model.Percent(score)})
}

// NotifyCandidate tells the candidate they were matched.
func (d *MailDispatcher) NotifyCandidate(ctx context.Context, candidate, seeker model.Profile, score float64) error {
	return d.send(ctx, mailCandidateMatch, view{Recipient: candidate, Counterpart: seeker, Percent: model.Percent(score)})
}

// Welcome confirms an intake submission.
func (d *MailDispatcher) Welcome(ctx context.Context, p model.Profile) error {
	key := mailWelcomeCandidate
	if p.Role == model.RoleSeeker {
		key = mailWelcomeSeeker
	}
	return d.send(ctx, key, view{Recipient: p})
}

// Deliver routes a queued job to the matching Dispatcher call.
func Deliver(ctx context.Context, d Dispatcher, n model.Notification) error {
	switch n.Kind {
	case model.NotifySeekerMatch:
		return d.NotifySeeker(ctx, n.Recipient, n.Counterpart, n.Score)
	case model.NotifyCandidateMatch:
		return d.NotifyCandidate(ctx, n.Recipient, n.Counterpart, n.Score)
	case model.NotifyWelcome:
		return d.Welcome(ctx, n.Recipient)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
	}
}

func (d *MailDispatcher) send(ctx context.Context, key string, v view) error {
	to, ok := v.Recipient.Contact()
	if !ok {
		return fmt.Errorf("%w: profile %s", ErrNoRecipient, v.Recipient.ID)
	}
	m := d.mails[key]

	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, v); err != nil {
		return fmt.Errorf("render %s: %w", key, err)
	}

	if err := d.mailer.Send(ctx, Message{To: to, Subject: m.subject, HTML: buf.String()}); err != nil {
		return err
	}
	d.logger.Debug(ctx, "mail sent", logger.String("template", key), logger.Email("to", to))
	return nil
}
