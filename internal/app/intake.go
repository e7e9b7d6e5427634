package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

// ReasonCandidatesUnavailable is reported when the candidate pool could not be read.
const ReasonCandidatesUnavailable = "candidates_unavailable"

// Intake is the result of a candidate submission.
type Intake struct {
	Profile    model.Profile
	ProfileErr error
}

// Outcome is the result of a seeker submission. It is always returned for
// a valid submission; storage failures are reported in the Err fields.
type Outcome struct {
	Seeker    model.Profile
	Matched   bool
	Reason    string
	Candidate model.Profile
	Score     float64
	Record    model.MatchRecord
	Skipped   int

	ProfileErr error
	FetchErr   error
	RecordErr  error
}

// SubmitCandidate stores a candidate profile and queues the welcome mail.
func (s *Service) SubmitCandidate(ctx context.Context, p model.Profile) (Intake, error) {
	release, ok := s.acquire()
	if !ok {
		return Intake{}, ErrNotStarted
	}
	defer release()

	p, err := s.prepare(p, model.RoleCandidate)
	if err != nil {
		return Intake{}, err
	}
	metrics.RecordProfileSubmitted(string(model.RoleCandidate))

	out := Intake{Profile: p, ProfileErr: s.saveProfile(ctx, p)}
	s.enqueue(ctx, model.Notification{Kind: model.NotifyWelcome, Recipient: p})
	return out, nil
}

// SubmitSeeker stores a seeker, selects their best candidate, records the
// match and queues both match mails.
func (s *Service) SubmitSeeker(ctx context.Context, p model.Profile) (Outcome, error) {
	release, ok := s.acquire()
	if !ok {
		return Outcome{}, ErrNotStarted
	}
	defer release()

	p, err := s.prepare(p, model.RoleSeeker)
	if err != nil {
		return Outcome{}, err
	}
	metrics.RecordProfileSubmitted(string(model.RoleSeeker))

	out := Outcome{Seeker: p, ProfileErr: s.saveProfile(ctx, p)}
	s.enqueue(ctx, model.Notification{Kind: model.NotifyWelcome, Recipient: p})

	pool, err := s.store.FetchCandidates(ctx)
	if err != nil {
		out.Reason = ReasonCandidatesUnavailable
		out.FetchErr = fmt.Errorf("%w: %w", ErrCandidatesFetch, err)
		s.logger.Error(ctx, "failed to fetch candidates", logger.String("seeker", p.ID), logger.Error(err))
		return out, nil
	}

	sel, err := s.ranker.SelectBest(ctx, p, pool)
	if err != nil {
		return out, fmt.Errorf("select candidate: %w", err)
	}
	out.Skipped = len(sel.Skipped)
	if !sel.Matched {
		out.Reason = sel.Reason
		return out, nil
	}
	out.Matched = true
	out.Candidate = sel.Candidate
	out.Score = sel.Score

	seekerContact, _ := p.Contact()
	out.Record, out.RecordErr = s.recorder.Record(ctx, seekerContact, sel.Contact, sel.Score)
	if out.RecordErr != nil && !s.notifyOnPersistFailure {
		s.logger.Warn(ctx, "match not recorded, notifications withheld", logger.String("seeker", p.ID))
		return out, nil
	}

	s.enqueue(ctx, model.Notification{
		Kind:        model.NotifySeekerMatch,
		Recipient:   p,
		Counterpart: sel.Candidate,
		Score:       sel.Score,
	})
	s.enqueue(ctx, model.Notification{
		Kind:        model.NotifyCandidateMatch,
		Recipient:   sel.Candidate,
		Counterpart: p,
		Score:       sel.Score,
	})
	return out, nil
}

// prepare stamps identity fields and validates the submission.
func (s *Service) prepare(p model.Profile, role model.Role) (model.Profile, error) {
	p.Role = role
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.By(contactRule)),
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	return p, nil
}

func contactRule(value any) error {
	addr, _ := value.(string)
	if _, ok := (model.Profile{Email: addr}).Contact(); !ok {
		return errors.New("must be a valid email address")
	}
	return nil
}

func (s *Service) saveProfile(ctx context.Context, p model.Profile) error {
	if err := s.store.SaveProfile(ctx, p); err != nil {
		metrics.RecordPersistenceError("profile")
		s.logger.Error(ctx, "failed to save profile",
			logger.String("id", p.ID),
			logger.String("role", string(p.Role)),
			logger.Error(err))
		return fmt.Errorf("%w: %w", ErrProfilePersistence, err)
	}
	return nil
}

// enqueue hands a job to the workers. Failures are logged and counted only.
func (s *Service) enqueue(ctx context.Context, n model.Notification) {
	if s.queue == nil {
		return
	}
	n.ID = s.newID()
	if err := s.queue.Enqueue(ctx, n); err != nil {
		s.logger.Warn(ctx, "notification dropped",
			logger.String("kind", string(n.Kind)),
			logger.String("recipient", n.Recipient.ID),
			logger.Error(err))
	}
}

// acquire holds the read lock for a whole operation so Stop waits for it.
// The returned release must be called when ok is true.
func (s *Service) acquire() (release func(), ok bool) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return nil, false
	}
	return s.mu.RUnlock, true
}
