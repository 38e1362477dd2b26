package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/caloric/internal/adapters/repository"
	"github.com/okian/caloric/internal/domain/distribution"
	"github.com/okian/caloric/internal/domain/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_CRUD(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx, repository.WithShardCount(4))
		defer func() { _ = store.Close() }()

		Convey("When creating a session", func() {
			sess, err := store.Create(ctx)

			Convey("Then it is retrievable and uninitialized", func() {
				So(err, ShouldBeNil)
				So(sess.ID, ShouldNotBeEmpty)
				So(store.Count(ctx), ShouldEqual, 1)

				got, err := store.Get(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got, ShouldPointTo, sess)

				_ = got.Use(func(st *repository.State) error {
					So(st.Engine.Initialized(), ShouldBeFalse)
					return nil
				})
			})

			Convey("And deleting it removes it", func() {
				So(store.Delete(ctx, sess.ID), ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 0)
				_, err := store.Get(ctx, sess.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(store.Delete(ctx, sess.ID), repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When getting an unknown id", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
			_, err := store.Create(ctx)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestMemoryStore_Capacity(t *testing.T) {
	Convey("Given a store capped at 3 sessions", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx, repository.WithMaxSessions(3))
		defer func() { _ = store.Close() }()

		Convey("When many goroutines create sessions", func() {
			var ok, full atomic.Int64
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.Create(ctx)
					switch {
					case err == nil:
						ok.Add(1)
					case errors.Is(err, repository.ErrCapacity):
						full.Add(1)
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly the cap succeeds", func() {
				So(ok.Load(), ShouldEqual, 3)
				So(full.Load(), ShouldEqual, 17)
				So(store.Count(ctx), ShouldEqual, 3)
			})
		})
	})
}

func TestMemoryStore_Sweep(t *testing.T) {
	Convey("Given a store with a fake clock", t, func() {
		ctx := context.Background()
		clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		var expired []string
		var n int
		store := repository.NewMemoryStore(ctx,
			repository.WithClock(clock.Now),
			repository.WithSessionTTL(10*time.Minute),
			repository.WithJanitorInterval(time.Hour),
			repository.WithExpireHook(func(id string) { expired = append(expired, id) }),
			repository.WithIDGenerator(func() string { n++; return fmt.Sprintf("s%d", n) }),
		)
		defer func() { _ = store.Close() }()

		idle, _ := store.Create(ctx)
		busy, _ := store.Create(ctx)

		Convey("When only one session is used before the ttl passes", func() {
			clock.Advance(8 * time.Minute)
			_ = busy.Use(func(*repository.State) error { return nil })
			clock.Advance(5 * time.Minute)

			removed := store.Sweep(clock.Now())

			Convey("Then only the idle session is evicted", func() {
				So(removed, ShouldEqual, 1)
				So(cmp.Diff([]string{idle.ID}, expired), ShouldBeEmpty)
				_, err := store.Get(ctx, busy.ID)
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}

func TestSession_State(t *testing.T) {
	Convey("Given a session", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx, repository.WithMessageLogSize(2), repository.WithDedupeSize(1))
		defer func() { _ = store.Close() }()
		sess, _ := store.Create(ctx)

		Convey("When using the engine through the session", func() {
			err := sess.Use(func(st *repository.State) error {
				_, err := st.Engine.Initialize(2)
				if err != nil {
					return err
				}
				st.Messages.Add("one")
				st.Messages.Add("two")
				st.Messages.Add("three")
				tr, err := st.Engine.AddIngredient(1)
				if err != nil {
					return err
				}
				view := types.Transition{Selected: int(tr.Selected), Outcome: tr.Outcome, Reset: tr.Reset}
				st.Replays.Record(ctx, "r1", view)
				st.Replays.Record(ctx, "r2", view)
				return nil
			})

			Convey("Then state persists between uses and bounds apply", func() {
				So(err, ShouldBeNil)
				_ = sess.Use(func(st *repository.State) error {
					So(st.Engine.History(), ShouldHaveLength, 2)
					So(cmp.Diff([]string{"two", "three"}, st.Messages.List()), ShouldBeEmpty)
					So(st.Replays.Size(), ShouldEqual, 1)
					tr, ok := st.Replays.Lookup(ctx, "r2")
					So(ok, ShouldBeTrue)
					So(tr.Outcome, ShouldEqual, distribution.Overflow)
					return nil
				})
			})
		})

		Convey("When fn fails", func() {
			want := errors.New("boom")
			So(sess.Use(func(*repository.State) error { return want }), ShouldEqual, want)
		})
	})
}

func TestMessageLog(t *testing.T) {
	Convey("Given a message log that keeps nothing", t, func() {
		l := repository.NewMessageLog(0)
		l.Add("x")
		So(l.List(), ShouldBeEmpty)
	})

	Convey("Given a message log", t, func() {
		l := repository.NewMessageLog(3)
		for i := 0; i < 5; i++ {
			l.Add(fmt.Sprint(i))
		}
		So(cmp.Diff([]string{"2", "3", "4"}, l.List()), ShouldBeEmpty)
		l.Clear()
		So(l.List(), ShouldBeEmpty)
	})
}
