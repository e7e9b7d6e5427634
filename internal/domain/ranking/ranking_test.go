package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/internal/domain/ranking"
	"github.com/okian/playground/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedScorer returns preset scores by candidate ID and fails or panics on demand.
type fixedScorer struct {
	scores map[string]float64
	fail   map[string]bool
	panic  map[string]bool
}

func (f fixedScorer) Evaluate(_ context.Context, _, c model.Profile) (scoring.Result, error) {
	if f.panic[c.ID] {
		panic("corrupt record")
	}
	if f.fail[c.ID] {
		return scoring.Result{}, errors.New("malformed")
	}
	return scoring.Result{CandidateID: c.ID, Score: f.scores[c.ID]}, nil
}

func cand(id string) model.Profile {
	return model.Profile{ID: id, Role: model.RoleCandidate, Email: id + "@example.com"}
}

func TestRanker_SelectBest(t *testing.T) {
	seeker := model.Profile{ID: "s", Role: model.RoleSeeker, Email: "s@example.com"}
	ctx := context.Background()

	Convey("Given a ranker", t, func() {
		Convey("When the pool is empty", func() {
			r := ranking.New(fixedScorer{})
			sel, _ := r.SelectBest(ctx, seeker, nil)

			Convey("Then no candidate is selected", func() {
				So(sel.Matched, ShouldBeFalse)
				So(sel.Score, ShouldEqual, 0)
				So(sel.Reason, ShouldEqual, ranking.ReasonEmptyPool)
			})
		})

		Convey("When two candidates tie for the top score", func() {
			r := ranking.New(fixedScorer{scores: map[string]float64{"a": 0.5, "b": 0.7, "c": 0.7}})
			pool := []model.Profile{cand("a"), cand("b"), cand("c")}

			Convey("Then the earlier one in the pool wins every time", func() {
				for range 20 {
					sel, _ := r.SelectBest(ctx, seeker, pool)
					So(sel.Matched, ShouldBeTrue)
					So(sel.Candidate.ID, ShouldEqual, "b")
					So(sel.Contact, ShouldEqual, "b@example.com")
					So(sel.Score, ShouldEqual, 0.7)
				}
			})
		})

		Convey("When every candidate scores zero", func() {
			r := ranking.New(fixedScorer{})
			sel, _ := r.SelectBest(ctx, seeker, []model.Profile{cand("a"), cand("b")})

			Convey("Then the selection is rejected", func() {
				So(sel.Matched, ShouldBeFalse)
				So(sel.Reason, ShouldEqual, ranking.ReasonZeroScore)
			})
		})

		Convey("When the winner has no usable contact", func() {
			noMail := cand("a")
			noMail.Email = "not-an-address"
			r := ranking.New(fixedScorer{scores: map[string]float64{"a": 0.9, "b": 0.3}})
			sel, _ := r.SelectBest(ctx, seeker, []model.Profile{noMail, cand("b")})

			Convey("Then the selection is rejected without falling back", func() {
				So(sel.Matched, ShouldBeFalse)
				So(sel.Reason, ShouldEqual, ranking.ReasonNoContact)
				So(sel.Candidate.ID, ShouldBeEmpty)
			})
		})

		Convey("When scoring fails for some candidates", func() {
			r := ranking.New(fixedScorer{
				scores: map[string]float64{"a": 0.9, "b": 0.8, "c": 0.2},
				fail:   map[string]bool{"a": true},
				panic:  map[string]bool{"c": true},
			})
			sel, _ := r.SelectBest(ctx, seeker, []model.Profile{cand("a"), cand("b"), cand("c")})

			Convey("Then they are skipped and the rest still rank", func() {
				So(sel.Matched, ShouldBeTrue)
				So(sel.Candidate.ID, ShouldEqual, "b")
				So(sel.Skipped, ShouldHaveLength, 2)
				So(sel.Skipped[0].CandidateID, ShouldEqual, "a")
				So(errors.Is(sel.Skipped[0].Err, ranking.ErrScoring), ShouldBeTrue)
				So(sel.Skipped[1].CandidateID, ShouldEqual, "c")
				So(errors.Is(sel.Skipped[1].Err, ranking.ErrScoring), ShouldBeTrue)
			})
		})

		Convey("When scoring fails for every candidate", func() {
			r := ranking.New(fixedScorer{fail: map[string]bool{"a": true}})
			sel, _ := r.SelectBest(ctx, seeker, []model.Profile{cand("a")})

			Convey("Then the selection is rejected", func() {
				So(sel.Matched, ShouldBeFalse)
				So(sel.Reason, ShouldEqual, ranking.ReasonAllFailed)
				So(sel.Skipped, ShouldHaveLength, 1)
			})
		})
	})
}

func TestRanker_Parallel(t *testing.T) {
	Convey("Given a large pool with many equal scores", t, func() {
		scores := make(map[string]float64)
		pool := make([]model.Profile, 0, 500)
		for i := range 500 {
			id := fmt.Sprintf("c-%03d", i)
			scores[id] = float64(i%5) / 10
			pool = append(pool, cand(id))
		}
		seeker := model.Profile{ID: "s"}
		sequential := ranking.New(fixedScorer{scores: scores})
		parallel := ranking.New(fixedScorer{scores: scores},
			ranking.WithConcurrency(8),
			ranking.WithParallelThreshold(10),
		)

		Convey("Then parallel ranking matches sequential ranking exactly", func() {
			want, _, _ := sequential.Rank(context.Background(), seeker, pool)
			for range 5 {
				got, _, _ := parallel.Rank(context.Background(), seeker, pool)
				So(len(got), ShouldEqual, len(want))
				for i := range want {
					So(got[i].Candidate.ID, ShouldEqual, want[i].Candidate.ID)
				}
			}
			So(want[0].Candidate.ID, ShouldEqual, "c-004")
		})
	})
}

func TestRanker_WithEngine(t *testing.T) {
	Convey("Given the real scoring engine", t, func() {
		r := ranking.New(scoring.NewEngine())
		seeker := model.Profile{ID: "s", Attributes: map[string]model.Attribute{
			model.AttrNiche:          {"fintech"},
			model.AttrDesignHelp:     {"ui"},
			model.AttrToolsUsed:      {"figma"},
			model.AttrEstimatedHours: {"6 hours"},
		}}
		a := cand("a")
		a.Attributes = map[string]model.Attribute{
			model.AttrNicheInterest: {"fintech", "health"},
			model.AttrFocus:         {"ui", "brand"},
			model.AttrTools:         {"figma", "sketch"},
			model.AttrAvailability:  {"weekdays", "evenings"},
		}
		b := cand("b")

		Convey("Then the overlapping candidate is selected regardless of order", func() {
			sel, _ := r.SelectBest(context.Background(), seeker, []model.Profile{b, a})
			So(sel.Matched, ShouldBeTrue)
			So(sel.Candidate.ID, ShouldEqual, "a")
			So(sel.Score, ShouldEqual, 0.4)
		})
	})
}

func TestRanker_Cancelled(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		seeker := model.Profile{ID: "s"}
		pool := []model.Profile{cand("a"), cand("b")}

		Convey("Then SelectBest reports the cancellation instead of a failed pool", func() {
			r := ranking.New(scoring.NewEngine())
			sel, err := r.SelectBest(ctx, seeker, pool)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(sel.Matched, ShouldBeFalse)
			So(sel.Reason, ShouldBeEmpty)
			So(sel.Skipped, ShouldBeEmpty)
		})

		Convey("Then Rank returns no partial ranking on either path", func() {
			for _, r := range []*ranking.Ranker{
				ranking.New(fixedScorer{}),
				ranking.New(fixedScorer{}, ranking.WithConcurrency(4), ranking.WithParallelThreshold(1)),
			} {
				ranked, skipped, err := r.Rank(ctx, seeker, pool)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(ranked, ShouldBeEmpty)
				So(skipped, ShouldBeEmpty)
			}
		})

		Convey("Then a live context still ranks normally", func() {
			r := ranking.New(fixedScorer{scores: map[string]float64{"a": 0.1, "b": 0.2}})
			sel, err := r.SelectBest(context.Background(), seeker, pool)
			So(err, ShouldBeNil)
			So(sel.Candidate.ID, ShouldEqual, "b")
		})
	})
}
