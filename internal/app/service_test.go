package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bloomwell/bloom/internal/adapters/remote"
	"github.com/bloomwell/bloom/internal/adapters/session"
	app "github.com/bloomwell/bloom/internal/app"
	"github.com/bloomwell/bloom/internal/domain/model"
	"github.com/bloomwell/bloom/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service wired to an in-process backend", t, func() {
		ctx := context.Background()
		mem := remote.NewMemory()
		slot := session.NewFileStore(filepath.Join(t.TempDir(), "auth-storage.json"))

		svc := app.New(
			app.WithRemote(mem),
			app.WithSessionStore(slot),
		)

		Convey("When the service starts", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the stores are ready and empty", func() {
				So(svc.Activities(), ShouldNotBeNil)
				So(svc.Auth(), ShouldNotBeNil)
				So(svc.Metrics(), ShouldNotBeNil)
				So(svc.Remote(), ShouldEqual, mem)

				_, signedIn := svc.Auth().User()
				So(signedIn, ShouldBeFalse)
			})

			Convey("And starting again is a no-op", func() {
				before := svc.Activities()
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Activities(), ShouldEqual, before)
			})
		})

		Convey("When a full sign-up-and-sync flow runs", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			So(svc.Auth().SignUp(ctx, "ada@example.com", "pw", "Ada"), ShouldBeNil)

			draft := model.ActivityDraft{Title: "Evening wind-down", Type: model.ActivityBreathing, Duration: "10 min"}
			So(svc.Activities().Create(ctx, draft), ShouldBeNil)
			So(svc.Metrics().Refresh(ctx), ShouldBeNil)

			Convey("Then every cache reflects the backend", func() {
				rows := svc.Activities().Activities()
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Title, ShouldEqual, "Evening wind-down")

				m, ok := svc.Metrics().Metrics()
				So(ok, ShouldBeTrue)
				So(m.StressLevel, ShouldEqual, 0)
			})

			Convey("And a second service restores the persisted session", func() {
				second := app.New(
					app.WithRemote(mem),
					app.WithSessionStore(slot),
				)
				So(second.Start(ctx), ShouldBeNil)
				defer second.Stop()

				user, ok := second.Auth().User()
				So(ok, ShouldBeTrue)
				So(user.Email, ShouldEqual, "ada@example.com")

				So(second.Activities().Refresh(ctx), ShouldBeNil)
				So(second.Activities().Activities(), ShouldHaveLength, 1)
			})
		})

		Convey("When a completed assessment is scored", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			So(svc.Auth().SignUp(ctx, "ada@example.com", "pw", "Ada"), ShouldBeNil)
			So(svc.Metrics().Refresh(ctx), ShouldBeNil)

			responses := scoring.Responses{
				1: "Moderate", 3: "Fair", 4: "Moderate",
				5: "Moderate", 6: "Moderately", 7: "Average",
			}

			Convey("And persist is off", func() {
				res, err := svc.ScoreAssessment(ctx, responses, false)
				So(err, ShouldBeNil)
				So(res.Score, ShouldEqual, scoring.Score(responses))
				So(res.Category.Label, ShouldEqual, scoring.Categorize(res.Score).Label)
				So(res.Recommendations, ShouldHaveLength, 3)

				Convey("Then the cached stress level is untouched", func() {
					m, _ := svc.Metrics().Metrics()
					So(m.StressLevel, ShouldEqual, 0)
				})
			})

			Convey("And persist is on", func() {
				res, err := svc.ScoreAssessment(ctx, responses, true)
				So(err, ShouldBeNil)

				Convey("Then the score becomes the user's stress level", func() {
					m, ok := svc.Metrics().Metrics()
					So(ok, ShouldBeTrue)
					So(m.StressLevel, ShouldEqual, res.Score)
				})
			})
		})

		Convey("When the service stops before starting", func() {
			Convey("Then Stop is harmless", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})
	})
}
