package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/playground/internal/app"
	"github.com/okian/playground/internal/adapters/repository"
	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/internal/domain/ranking"
	"github.com/okian/playground/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type sent struct {
	kind string
	to   string
}

type captureDispatcher struct {
	mu   sync.Mutex
	sent []sent
}

func (c *captureDispatcher) add(kind string, p model.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{kind: kind, to: p.Email})
	return nil
}

func (c *captureDispatcher) NotifySeeker(_ context.Context, seeker, _ model.Profile, _ float64) error {
	return c.add("seeker_match", seeker)
}

func (c *captureDispatcher) NotifyCandidate(_ context.Context, candidate, _ model.Profile, _ float64) error {
	return c.add("candidate_match", candidate)
}

func (c *captureDispatcher) Welcome(_ context.Context, p model.Profile) error {
	return c.add("welcome", p)
}

func (c *captureDispatcher) kinds() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]int{}
	for _, s := range c.sent {
		out[s.kind]++
	}
	return out
}

// failingLog breaks the match log while keeping profiles working.
type failingLog struct {
	repository.Store
}

func (failingLog) Append(context.Context, model.MatchRecord) error {
	return errors.New("disk full")
}

type failingProfiles struct {
	repository.Store
}

func (failingProfiles) SaveProfile(context.Context, model.Profile) error {
	return errors.New("read-only")
}

type brokenPool struct {
	repository.Store
}

func (brokenPool) FetchCandidates(context.Context) ([]model.Profile, error) {
	return nil, errors.New("timeout")
}

func designer(name, email string, attrs map[string]model.Attribute) model.Profile {
	return model.Profile{Name: name, Email: email, Attributes: attrs}
}

func founder() model.Profile {
	return model.Profile{
		Name:  "Sam",
		Email: "sam@example.com",
		Attributes: map[string]model.Attribute{
			model.AttrNiche:          {"fintech"},
			model.AttrDesignHelp:     {"ui"},
			model.AttrToolsUsed:      {"figma"},
			model.AttrEstimatedHours: {"6 hours"},
		},
	}
}

func matchingDesigner() model.Profile {
	return designer("Ada", "ada@example.com", map[string]model.Attribute{
		model.AttrNicheInterest: {"fintech", "health"},
		model.AttrFocus:         {"ui", "brand"},
		model.AttrTools:         {"figma", "sketch"},
		model.AttrAvailability:  {"weekdays", "evenings"},
	})
}

func startService(store repository.Store, opts ...service.Option) (*service.Service, *captureDispatcher) {
	d := &captureDispatcher{}
	all := append([]service.Option{
		service.WithStore(store),
		service.WithDispatcher(d),
		service.WithNotifyRate(0),
		service.WithLogger(logger.Get()),
	}, opts...)
	svc := service.New(all...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc, d
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When used before Start", func() {
			_, err := svc.SubmitSeeker(ctx, founder())

			Convey("Then it refuses", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats(ctx)["started"], ShouldBeFalse)
			})
		})

		Convey("When started and stopped repeatedly", func() {
			for range 3 {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.GetStats(ctx)["started"], ShouldBeTrue)
				svc.Stop()
				svc.Stop()
			}

			Convey("Then it ends stopped", func() {
				So(svc.GetStats(ctx)["started"], ShouldBeFalse)
			})
		})
	})

	Convey("Given an unknown store driver", t, func() {
		svc := service.New(service.WithStoreDriver("postgres", ""))

		Convey("Then Start fails", func() {
			So(errors.Is(svc.Start(context.Background()), repository.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

func TestService_SubmitSeeker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service with one matching and one unrelated designer", t, func() {
		svc, d := startService(repository.NewMemoryStore())
		defer svc.Stop()

		_, err := svc.SubmitCandidate(ctx, designer("Bo", "bo@example.com", nil))
		So(err, ShouldBeNil)
		_, err = svc.SubmitCandidate(ctx, matchingDesigner())
		So(err, ShouldBeNil)

		Convey("When a founder submits", func() {
			out, err := svc.SubmitSeeker(ctx, founder())

			Convey("Then the matching designer is selected and recorded", func() {
				So(err, ShouldBeNil)
				So(out.Matched, ShouldBeTrue)
				So(out.Candidate.Email, ShouldEqual, "ada@example.com")
				So(out.Score, ShouldEqual, 0.4)
				So(out.Record.SeekerEmail, ShouldEqual, "sam@example.com")
				So(out.Record.CandidateEmail, ShouldEqual, "ada@example.com")
				So(out.ProfileErr, ShouldBeNil)
				So(out.RecordErr, ShouldBeNil)

				matches, err := svc.Matches(ctx)
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 1)
			})

			Convey("And welcome and match mails are delivered", func() {
				svc.Stop()
				k := d.kinds()
				So(k["welcome"], ShouldEqual, 3)
				So(k["seeker_match"], ShouldEqual, 1)
				So(k["candidate_match"], ShouldEqual, 1)
			})
		})

		Convey("When the same founder submits twice", func() {
			_, _ = svc.SubmitSeeker(ctx, founder())
			_, _ = svc.SubmitSeeker(ctx, founder())

			Convey("Then both matches are recorded", func() {
				matches, _ := svc.Matches(ctx)
				So(matches, ShouldHaveLength, 2)
			})
		})

		Convey("When the submission is invalid", func() {
			bad := founder()
			bad.Email = "nope"
			_, err := svc.SubmitSeeker(ctx, bad)

			Convey("Then it is rejected before anything is stored", func() {
				So(errors.Is(err, service.ErrInvalidSubmission), ShouldBeTrue)
				seekers, _ := svc.Seekers(ctx)
				So(seekers, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service with no candidates", t, func() {
		svc, d := startService(repository.NewMemoryStore())

		Convey("When a founder submits", func() {
			out, err := svc.SubmitSeeker(ctx, founder())
			svc.Stop()

			Convey("Then no match is recorded and only the welcome goes out", func() {
				So(err, ShouldBeNil)
				So(out.Matched, ShouldBeFalse)
				So(out.Reason, ShouldEqual, ranking.ReasonEmptyPool)
				So(out.Score, ShouldEqual, 0)
				So(d.kinds(), ShouldResemble, map[string]int{"welcome": 1})
			})
		})
	})

	Convey("Given a match log that cannot be written", t, func() {
		Convey("When notifications on persistence failure are on", func() {
			svc, d := startService(failingLog{repository.NewMemoryStore()})
			_, _ = svc.SubmitCandidate(ctx, matchingDesigner())
			out, err := svc.SubmitSeeker(ctx, founder())
			svc.Stop()

			Convey("Then the match stands, the error is reported and mails still go out", func() {
				So(err, ShouldBeNil)
				So(out.Matched, ShouldBeTrue)
				So(out.RecordErr, ShouldNotBeNil)
				So(d.kinds()["seeker_match"], ShouldEqual, 1)
				So(d.kinds()["candidate_match"], ShouldEqual, 1)
			})
		})

		Convey("When notifications on persistence failure are off", func() {
			svc, d := startService(failingLog{repository.NewMemoryStore()},
				service.WithNotifyOnPersistFailure(false))
			_, _ = svc.SubmitCandidate(ctx, matchingDesigner())
			out, _ := svc.SubmitSeeker(ctx, founder())
			svc.Stop()

			Convey("Then match mails are withheld", func() {
				So(out.RecordErr, ShouldNotBeNil)
				So(d.kinds()["seeker_match"], ShouldEqual, 0)
			})
		})
	})

	Convey("Given a store that rejects profiles", t, func() {
		svc, _ := startService(failingProfiles{repository.NewMemoryStore()})
		defer svc.Stop()

		Convey("When a founder submits", func() {
			out, err := svc.SubmitSeeker(ctx, founder())

			Convey("Then the flow completes with the profile error reported", func() {
				So(err, ShouldBeNil)
				So(errors.Is(out.ProfileErr, service.ErrProfilePersistence), ShouldBeTrue)
				So(out.Reason, ShouldEqual, ranking.ReasonEmptyPool)
			})
		})
	})

	Convey("Given a candidate pool that cannot be read", t, func() {
		svc, _ := startService(brokenPool{repository.NewMemoryStore()})
		defer svc.Stop()

		Convey("When a founder submits", func() {
			out, err := svc.SubmitSeeker(ctx, founder())

			Convey("Then no match is made and the fetch error is reported", func() {
				So(err, ShouldBeNil)
				So(out.Matched, ShouldBeFalse)
				So(out.Reason, ShouldEqual, service.ReasonCandidatesUnavailable)
				So(errors.Is(out.FetchErr, service.ErrCandidatesFetch), ShouldBeTrue)
			})
		})
	})
}

func TestService_PreviewMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given stored designers and a founder", t, func() {
		ids := []string{"c-bo", "c-ada", "c-cy", "s-sam"}
		n := 0
		svc, _ := startService(repository.NewMemoryStore(),
			service.WithNotifications(false),
			service.WithMaxRankingLimit(2),
			service.WithIDGenerator(func() string { id := ids[n%len(ids)]; n++; return id }),
			service.WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }),
		)
		defer svc.Stop()

		_, _ = svc.SubmitCandidate(ctx, designer("Bo", "bo@example.com", nil))
		_, _ = svc.SubmitCandidate(ctx, matchingDesigner())
		_, _ = svc.SubmitCandidate(ctx, designer("Cy", "cy@example.com", map[string]model.Attribute{
			model.AttrNicheInterest: {"fintech"},
		}))
		seeker := founder()
		seeker.ID = "s-sam"
		_, _ = svc.SubmitSeeker(ctx, seeker)

		Convey("When previewing with a limit above the cap", func() {
			entries, err := svc.PreviewMatch(ctx, "s-sam", 50)

			Convey("Then the best candidates come first, capped", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].CandidateID, ShouldEqual, "c-ada")
				So(entries[0].Percent, ShouldEqual, 40)
				So(entries[1].CandidateID, ShouldEqual, "c-cy")
			})
		})

		Convey("When previewing an unknown seeker", func() {
			_, err := svc.PreviewMatch(ctx, "missing", 5)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading stats", func() {
			stats := svc.GetStats(ctx)

			Convey("Then counts reflect the store", func() {
				So(stats["candidates"], ShouldEqual, 3)
				So(stats["seekers"], ShouldEqual, 1)
				So(stats["matches"], ShouldEqual, 1)
			})
		})
	})
}
