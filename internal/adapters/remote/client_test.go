package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bloomwell/bloom/internal/adapters/remote"
	"github.com/bloomwell/bloom/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// capturedRequest holds what the fake backend saw for one call.
type capturedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// fakeBackend answers with a canned status and body and records every
// request it sees.
type fakeBackend struct {
	status int
	body   string
	seen   []capturedRequest
}

func (f *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		f.seen = append(f.seen, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  q,
			Header: r.Header.Clone(),
			Body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}
}

func (f *fakeBackend) last() capturedRequest {
	return f.seen[len(f.seen)-1]
}

const sessionJSON = `{
	"access_token": "token-abc",
	"refresh_token": "refresh-xyz",
	"user": {"id": "user-1", "email": "ada@example.com", "user_metadata": {"name": "Ada", "avatar_url": "", "bio": "", "phone": "", "location": ""}}
}`

func TestClientAuth(t *testing.T) {
	Convey("Given a backend that accepts auth calls", t, func() {
		ctx := context.Background()
		backend := &fakeBackend{status: http.StatusOK, body: sessionJSON}
		srv := httptest.NewServer(backend.handler())
		defer srv.Close()

		c := remote.NewClient(srv.URL, "anon-key")

		Convey("When SignUp succeeds", func() {
			sess, err := c.SignUp(ctx, "ada@example.com", "pw", model.Metadata{Name: "Ada"})
			So(err, ShouldBeNil)

			Convey("Then the request hits the signup path with the project key", func() {
				req := backend.last()
				So(req.Method, ShouldEqual, http.MethodPost)
				So(req.Path, ShouldEqual, "/auth/v1/signup")
				So(req.Header.Get("apikey"), ShouldEqual, "anon-key")
				So(req.Header.Get("Authorization"), ShouldEqual, "Bearer anon-key")
				So(req.Header.Get("X-Request-ID"), ShouldNotBeEmpty)
				So(req.Header.Get("Content-Type"), ShouldEqual, "application/json")
			})

			Convey("Then the session is installed for later calls", func() {
				So(sess.AccessToken, ShouldEqual, "token-abc")
				user, err := c.CurrentUser(ctx)
				So(err, ShouldBeNil)
				So(user.Email, ShouldEqual, "ada@example.com")

				_, _ = c.ListActivities(ctx, user.ID)
				So(backend.last().Header.Get("Authorization"), ShouldEqual, "Bearer token-abc")
			})
		})

		Convey("When SignIn succeeds", func() {
			_, err := c.SignIn(ctx, "ada@example.com", "pw")
			So(err, ShouldBeNil)

			Convey("Then the token grant is in the query", func() {
				req := backend.last()
				So(req.Path, ShouldEqual, "/auth/v1/token")
				So(req.Query["grant_type"], ShouldEqual, "password")
			})
		})

		Convey("When the email is taken", func() {
			backend.status = http.StatusUnprocessableEntity
			backend.body = `{"code": "user_already_exists", "msg": "User already registered"}`

			_, err := c.SignUp(ctx, "ada@example.com", "pw", model.Metadata{})

			Convey("Then the sentinel is returned", func() {
				So(errors.Is(err, remote.ErrUserExists), ShouldBeTrue)
			})
		})

		Convey("When the duplicate is only signalled by message text", func() {
			backend.status = http.StatusBadRequest
			backend.body = `{"msg": "A user with this email address has already registered"}`

			_, err := c.SignUp(ctx, "ada@example.com", "pw", model.Metadata{})
			So(errors.Is(err, remote.ErrUserExists), ShouldBeTrue)
		})

		Convey("When credentials are rejected", func() {
			backend.status = http.StatusBadRequest
			backend.body = `{"error_description": "Invalid login credentials"}`

			_, err := c.SignIn(ctx, "ada@example.com", "nope")

			Convey("Then the message survives into the APIError", func() {
				var apiErr *remote.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusBadRequest)
				So(apiErr.Message, ShouldEqual, "Invalid login credentials")
			})
		})

		Convey("When signing out without a session", func() {
			So(errors.Is(c.SignOut(ctx), remote.ErrNoSession), ShouldBeTrue)
		})

		Convey("When signing out with a session", func() {
			_, err := c.SignIn(ctx, "ada@example.com", "pw")
			So(err, ShouldBeNil)

			backend.body = `{}`
			So(c.SignOut(ctx), ShouldBeNil)

			Convey("Then the local session is dropped", func() {
				_, err := c.CurrentUser(ctx)
				So(errors.Is(err, remote.ErrNoSession), ShouldBeTrue)
			})
		})
	})
}

func TestClientRows(t *testing.T) {
	Convey("Given a client with an installed session", t, func() {
		ctx := context.Background()
		backend := &fakeBackend{status: http.StatusOK, body: `[]`}
		srv := httptest.NewServer(backend.handler())
		defer srv.Close()

		c := remote.NewClient(srv.URL, "anon-key")
		c.RestoreSession(remote.Session{
			AccessToken: "token-abc",
			User:        model.User{ID: "user-1", Email: "ada@example.com"},
		})

		Convey("When activities are listed", func() {
			_, err := c.ListActivities(ctx, "user-1")
			So(err, ShouldBeNil)

			Convey("Then the query filters by owner and orders newest-first", func() {
				req := backend.last()
				So(req.Path, ShouldEqual, "/rest/v1/activities")
				So(req.Query["user_id"], ShouldEqual, "eq.user-1")
				So(req.Query["order"], ShouldEqual, "created_at.desc")
			})
		})

		Convey("When an activity is inserted", func() {
			backend.body = `[]`
			err := c.InsertActivity(ctx, "user-1", model.ActivityDraft{Title: "Morning sit", Type: model.ActivityMeditation})
			So(err, ShouldBeNil)

			Convey("Then the row carries the owner id", func() {
				req := backend.last()
				So(req.Method, ShouldEqual, http.MethodPost)

				var rows []map[string]any
				So(json.Unmarshal(req.Body, &rows), ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0]["user_id"], ShouldEqual, "user-1")
				So(rows[0]["title"], ShouldEqual, "Morning sit")
			})
		})

		Convey("When an activity is patched", func() {
			backend.body = `[]`
			title := "Long walk"
			So(c.UpdateActivity(ctx, "act-9", model.ActivityPatch{Title: &title}), ShouldBeNil)

			req := backend.last()
			So(req.Method, ShouldEqual, http.MethodPatch)
			So(req.Query["id"], ShouldEqual, "eq.act-9")

			Convey("Then unset patch fields stay off the wire", func() {
				var patch map[string]any
				So(json.Unmarshal(req.Body, &patch), ShouldBeNil)
				So(patch["title"], ShouldEqual, "Long walk")
				_, hasStatus := patch["status"]
				So(hasStatus, ShouldBeFalse)
			})
		})

		Convey("When an activity is deleted", func() {
			backend.body = `[]`
			So(c.DeleteActivity(ctx, "act-9"), ShouldBeNil)
			req := backend.last()
			So(req.Method, ShouldEqual, http.MethodDelete)
			So(req.Query["id"], ShouldEqual, "eq.act-9")
		})

		Convey("When the metrics singleton is fetched", func() {
			backend.body = `{"stress_level": 42, "focus_score": 77, "activity_score": 3.5, "heart_rate": 64}`
			m, err := c.MetricsByOwner(ctx, "user-1")
			So(err, ShouldBeNil)
			So(m.StressLevel, ShouldEqual, 42)

			Convey("Then the single-object accept header was sent", func() {
				req := backend.last()
				So(req.Header.Get("Accept"), ShouldEqual, "application/vnd.pgrst.object+json")
				So(req.Query["user_id"], ShouldEqual, "eq.user-1")
			})
		})

		Convey("When no metrics row exists", func() {
			Convey("Then the PGRST116 code maps to ErrNoRows", func() {
				backend.status = http.StatusNotFound
				backend.body = `{"code": "PGRST116", "message": "JSON object requested, multiple (or no) rows returned"}`
				_, err := c.MetricsByOwner(ctx, "user-1")
				So(errors.Is(err, remote.ErrNoRows), ShouldBeTrue)
			})

			Convey("Then a bare 406 maps to ErrNoRows too", func() {
				backend.status = http.StatusNotAcceptable
				backend.body = `{}`
				_, err := c.MetricsByOwner(ctx, "user-1")
				So(errors.Is(err, remote.ErrNoRows), ShouldBeTrue)
			})
		})

		Convey("When a metrics row is inserted", func() {
			backend.body = `{"stress_level": 0, "focus_score": 0, "activity_score": 0, "heart_rate": 0}`
			_, err := c.InsertMetrics(ctx, "user-1", model.UserMetrics{})
			So(err, ShouldBeNil)

			Convey("Then the representation is requested back", func() {
				req := backend.last()
				So(req.Header.Get("Prefer"), ShouldEqual, "return=representation")
				So(req.Header.Get("Accept"), ShouldEqual, "application/vnd.pgrst.object+json")
			})
		})

		Convey("When a numeric error code comes back", func() {
			backend.status = http.StatusBadRequest
			backend.body = `{"code": 400, "message": "bad request"}`
			_, err := c.MetricsByOwner(ctx, "user-1")

			var apiErr *remote.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Code, ShouldEqual, "400")
		})

		Convey("When the error body is empty", func() {
			backend.status = http.StatusInternalServerError
			backend.body = ``
			_, err := c.ListActivities(ctx, "user-1")

			Convey("Then the status text stands in for the message", func() {
				var apiErr *remote.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Message, ShouldEqual, http.StatusText(http.StatusInternalServerError))
			})
		})
	})
}
