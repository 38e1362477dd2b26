package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/caloric/internal/adapters/http/api"
	service "github.com/okian/caloric/internal/app"
	"github.com/okian/caloric/internal/domain/distribution"
	"github.com/okian/caloric/internal/domain/types"
	"github.com/okian/caloric/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// failingDeps returns err from every operation.
type failingDeps struct{ err error }

func (f failingDeps) CreateSession(context.Context, int) (types.Session, error) {
	return types.Session{}, f.err
}

func (f failingDeps) Initialize(context.Context, string, int) (types.Session, error) {
	return types.Session{}, f.err
}

func (f failingDeps) AddIngredient(context.Context, string, int, string) (types.Transition, error) {
	return types.Transition{}, f.err
}

func (f failingDeps) Reset(context.Context, string) (types.Session, error) {
	return types.Session{}, f.err
}

func (f failingDeps) Snapshot(context.Context, string) (types.Session, error) {
	return types.Session{}, f.err
}

func (f failingDeps) History(context.Context, string) ([]types.HistoryStep, error) {
	return nil, f.err
}

func (f failingDeps) DeleteSession(context.Context, string) error { return f.err }

func (f failingDeps) GetStats() map[string]any { return map[string]any{} }

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestSessionsAPI(t *testing.T) {
	Convey("Given an API backed by a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When creating a session with two ingredients", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"count":2}`)

			So(w.Code, ShouldEqual, http.StatusCreated)
			sess := decode[types.Session](w)
			So(sess.State, ShouldEqual, types.StateActive)
			So(sess.Count, ShouldEqual, 2)
			So(w.Header().Get("Location"), ShouldEqual, "/sessions/"+sess.ID)

			Convey("And adding ingredient 1 overflows and resets", func() {
				w := do(mux, http.MethodPost, "/sessions/"+sess.ID+"/ingredients", `{"ingredient":1}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				tr := decode[types.Transition](w)
				So(tr.Outcome, ShouldEqual, distribution.Overflow)
				So(tr.Reset, ShouldBeTrue)
				So(tr.Current[0].Weight, ShouldEqual, 0.5)
				So(strings.Contains(w.Body.String(), `"outcome":"overflow"`), ShouldBeTrue)
			})

			Convey("And an unknown ingredient is a bad request", func() {
				w := do(mux, http.MethodPost, "/sessions/"+sess.ID+"/ingredients", `{"ingredient":3}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "unknown_ingredient")
			})

			Convey("And the idempotency header replays an addition", func() {
				req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID+"/ingredients", strings.NewReader(`{"ingredient":2}`))
				req.Header.Set(api.IdempotencyHeader, "abc")
				first := httptest.NewRecorder()
				mux.ServeHTTP(first, req)

				req = httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID+"/ingredients", strings.NewReader(`{"ingredient":2}`))
				req.Header.Set(api.IdempotencyHeader, "abc")
				second := httptest.NewRecorder()
				mux.ServeHTTP(second, req)

				So(decode[types.Transition](first).Replayed, ShouldBeFalse)
				So(decode[types.Transition](second).Replayed, ShouldBeTrue)

				h := decode[[]types.HistoryStep](do(mux, http.MethodGet, "/sessions/"+sess.ID+"/history", ""))
				So(h, ShouldHaveLength, 2)
			})

			Convey("And reusing a request id for another ingredient conflicts", func() {
				w := do(mux, http.MethodPost, "/sessions/"+sess.ID+"/ingredients", `{"ingredient":1,"request_id":"r-1"}`)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(mux, http.MethodPost, "/sessions/"+sess.ID+"/ingredients", `{"ingredient":2,"request_id":"r-1"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorBody](w).Code, ShouldEqual, "request_conflict")

				h := decode[[]types.HistoryStep](do(mux, http.MethodGet, "/sessions/"+sess.ID+"/history", ""))
				So(h, ShouldHaveLength, 2)
			})

			Convey("And reset makes additions conflict until reinitialized", func() {
				w := do(mux, http.MethodPost, "/sessions/"+sess.ID+"/reset", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Session](w).State, ShouldEqual, types.StateUninitialized)

				w = do(mux, http.MethodPost, "/sessions/"+sess.ID+"/ingredients", `{"ingredient":1}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorBody](w).Code, ShouldEqual, "not_initialized")

				w = do(mux, http.MethodPost, "/sessions/"+sess.ID+"/initialize", `{"count":9}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Session](w).Count, ShouldEqual, 9)
			})

			Convey("And initializing with a bad count is rejected", func() {
				w := do(mux, http.MethodPost, "/sessions/"+sess.ID+"/initialize", `{"count":1}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "invalid_configuration")
			})

			Convey("And the session can be read and deleted", func() {
				w := do(mux, http.MethodGet, "/sessions/"+sess.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Session](w).Ingredients, ShouldHaveLength, 2)

				w = do(mux, http.MethodDelete, "/sessions/"+sess.ID, "")
				So(w.Code, ShouldEqual, http.StatusNoContent)

				w = do(mux, http.MethodGet, "/sessions/"+sess.ID, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When creating a session without a body", func() {
			w := do(mux, http.MethodPost, "/sessions", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decode[types.Session](w).Count, ShouldEqual, 5)
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"count":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "bad_request")

			w = do(mux, http.MethodPost, "/sessions", `{"colour":"red"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the count is out of range", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"count":10}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "invalid_configuration")
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/sessions", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When reading health and stats", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)

			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w)["started"], ShouldEqual, true)
		})
	})
}

func TestSessionsAPI_InternalErrors(t *testing.T) {
	Convey("Given dependencies that fail unexpectedly", t, func() {
		deps := failingDeps{err: errors.New("disk on fire")}
		mux := newMux(deps, deps)

		Convey("Then every route answers 500", func() {
			for _, c := range []struct{ method, path string }{
				{http.MethodPost, "/sessions"},
				{http.MethodGet, "/sessions/x"},
				{http.MethodDelete, "/sessions/x"},
				{http.MethodPost, "/sessions/x/initialize"},
				{http.MethodPost, "/sessions/x/ingredients"},
				{http.MethodPost, "/sessions/x/reset"},
				{http.MethodGet, "/sessions/x/history"},
			} {
				w := do(mux, c.method, c.path, "")
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode[errorBody](w).Code, ShouldEqual, "internal_error")
			}
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("eof")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: eof")
		So(api.NewKind("api.op", api.ErrInternal).Error(), ShouldEqual, "api.op: internal error")
		So(api.Wrap("api.op", nil), ShouldBeNil)
		So(errors.Is(api.Wrap("api.op", cause), cause), ShouldBeTrue)
	})
}
