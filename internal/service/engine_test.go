package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/queue"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// Wednesday 2026-10-14; the next Sunday is 2026-10-18.
var (
	wednesday = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	friday    = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	sunday    = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	monday    = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	engine *Engine
	clock  *testClock
	pub    *recordingPublisher
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, filepath.Join(t.TempDir(), "coworking.db"))
}

// newFixtureAt opens its own handle on path.  Two fixtures on one path
// behave like two processes sharing the store.
func newFixtureAt(t *testing.T, path string) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		clock: &testClock{now: wednesday},
		pub:   &recordingPublisher{},
		logs:  &bytes.Buffer{},
	}
	pol := policy.Policy{AdvanceDays: 2, CancellationLeadDays: 2, Location: time.UTC}
	f.engine = New(repository.NewStore(db, database.SQLite), pol, f.clock, f.pub, logger.NewWithWriter(f.logs))
	return f
}

// race runs fn(0..workers-1) in goroutines released together.
func race(workers int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
}

func (f *fixture) client(t *testing.T, given, sur string) *model.Client {
	t.Helper()
	c, err := f.engine.RegisterClient(context.Background(), given, sur)
	require.NoError(t, err)
	return c
}

func (f *fixture) room(t *testing.T, name string, capacity int) *model.Room {
	t.Helper()
	r, err := f.engine.RegisterRoom(context.Background(), name, capacity)
	require.NoError(t, err)
	return r
}

func roomIDs(rooms []model.Room) []string {
	out := []string{}
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.client(t, "Ana", "Pérez")
	assert.Equal(t, "C0001", ana.ID)
	sala := f.room(t, "Sala A", 10)
	assert.Equal(t, "S0001", sala.ID)
	luis := f.client(t, "Luis", "Garza")

	date := wednesday.AddDate(0, 0, 3)
	res, err := f.engine.CreateReservation(ctx, NewReservation{
		EventName: "Taller", ClientID: ana.ID, RoomID: sala.ID, Date: date, Shift: model.ShiftMorning,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Folio)
	assert.Equal(t, model.StatusActive, res.Status)

	_, err = f.engine.CreateReservation(ctx, NewReservation{
		EventName: "Otro", ClientID: luis.ID, RoomID: sala.ID, Date: date, Shift: model.ShiftMorning,
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "room already booked for that date/shift", apperror.Message(err))

	free, err := f.engine.AvailableRooms(ctx, date, model.ShiftMorning)
	require.NoError(t, err)
	assert.Empty(t, free)

	cancelled, err := f.engine.CancelReservation(ctx, res.Folio)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	free, err = f.engine.AvailableRooms(ctx, date, model.ShiftMorning)
	require.NoError(t, err)
	assert.Equal(t, []string{"S0001"}, roomIDs(free))

	assert.Equal(t, []string{queue.EventCreated, queue.EventCancelled}, f.pub.Types())
}

func TestRegisterClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.client(t, "  Ana ", " Pérez  ")
	assert.Equal(t, "Ana", c.GivenNames)
	assert.Equal(t, "Pérez", c.Surnames)

	tests := []struct {
		name      string
		given     string
		surnames  string
		wantError error
	}{
		{"empty given names", "  ", "Pérez", apperror.ErrValidation},
		{"empty surnames", "Ana", "", apperror.ErrValidation},
		{"same names in other case", "ANA", "pérez", apperror.ErrDuplicate},
		{"same names with padding", " Ana", "Pérez ", apperror.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.RegisterClient(ctx, tt.given, tt.surnames)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantError)
		})
	}

	next := f.client(t, "Ana", "Pérez Garza")
	assert.Equal(t, "C0002", next.ID, "failed registrations do not consume ids")
}

func TestRegisterRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.room(t, "Sala A", 10)

	_, err := f.engine.RegisterRoom(ctx, " Sala A ", 4)
	assert.ErrorIs(t, err, apperror.ErrDuplicate)
	_, err = f.engine.RegisterRoom(ctx, "sala a", 4)
	assert.ErrorIs(t, err, apperror.ErrDuplicate)
	_, err = f.engine.RegisterRoom(ctx, "   ", 4)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.engine.RegisterRoom(ctx, "Sala B", 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.engine.RegisterRoom(ctx, "Sala B", -3)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	b := f.room(t, "Sala B", 1)
	assert.Equal(t, "S0002", b.ID)

	rooms, err := f.engine.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S0001", "S0002"}, roomIDs(rooms))
}

func TestNextIDIsStrictlyIncreasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.NextID(ctx, model.CategoryClient)
	require.NoError(t, err)
	assert.Equal(t, "C0001", first)

	_, err = f.engine.RegisterClient(ctx, "", "Pérez")
	require.Error(t, err)

	c := f.client(t, "Ana", "Pérez")
	assert.Equal(t, "C0002", c.ID)

	_, err = f.engine.RegisterClient(ctx, "ana", "PÉREZ")
	require.ErrorIs(t, err, apperror.ErrDuplicate)

	third, err := f.engine.NextID(ctx, model.CategoryClient)
	require.NoError(t, err)
	assert.Equal(t, "C0003", third)

	room, err := f.engine.NextID(ctx, model.CategoryRoom)
	require.NoError(t, err)
	assert.Equal(t, "S0001", room)

	_, err = f.engine.NextID(ctx, model.Category("Z"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLookupsReturnNilOnMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana", "Pérez")
	f.room(t, "Sala A", 10)

	c, err := f.engine.GetClient(ctx, " c0001 ")
	require.NoError(t, err)
	assert.Equal(t, ana, c)

	c, err = f.engine.GetClient(ctx, "C0404")
	assert.NoError(t, err)
	assert.Nil(t, c)

	r, err := f.engine.GetRoom(ctx, "S0404")
	assert.NoError(t, err)
	assert.Nil(t, r)

	res, err := f.engine.GetReservation(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestListClientsSorted(t *testing.T) {
	f := newFixture(t)
	f.client(t, "Zoe", "Garza")
	f.client(t, "Ana", "Treviño")
	f.client(t, "Ana", "Garza")

	list, err := f.engine.ListClientsSorted(context.Background())
	require.NoError(t, err)
	var names []string
	for _, c := range list {
		names = append(names, c.DisplayName())
	}
	assert.Equal(t, []string{"Garza, Ana", "Garza, Zoe", "Treviño, Ana"}, names)
}

func TestCreateReservationValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "Ana", "Pérez")
	f.room(t, "Sala A", 10)

	tests := []struct {
		name    string
		in      NewReservation
		kind    error
		message string
	}{
		{
			name:    "event name checked first",
			in:      NewReservation{EventName: " ", ClientID: "C0404", RoomID: "S0404", Date: sunday, Shift: "X"},
			kind:    apperror.ErrValidation,
			message: "event name must not be empty",
		},
		{
			name:    "client before room",
			in:      NewReservation{EventName: "Taller", ClientID: "C0404", RoomID: "S0404", Date: saturday, Shift: model.ShiftMorning},
			kind:    apperror.ErrNotFound,
			message: "client C0404 not found",
		},
		{
			name:    "room before shift",
			in:      NewReservation{EventName: "Taller", ClientID: "C0001", RoomID: "S0404", Date: saturday, Shift: "X"},
			kind:    apperror.ErrNotFound,
			message: "room S0404 not found",
		},
		{
			name:    "shift before date",
			in:      NewReservation{EventName: "Taller", ClientID: "C0001", RoomID: "S0001", Date: wednesday, Shift: "X"},
			kind:    apperror.ErrValidation,
			message: `unknown shift "X"`,
		},
		{
			name:    "advance notice reports the earliest date",
			in:      NewReservation{EventName: "Taller", ClientID: "C0001", RoomID: "S0001", Date: wednesday.AddDate(0, 0, 1), Shift: model.ShiftNight},
			kind:    apperror.ErrValidation,
			message: "reservation date must be at least 2 days after today; earliest date is 10-16-2026",
		},
		{
			name:    "sunday is closed",
			in:      NewReservation{EventName: "Taller", ClientID: "C0001", RoomID: "S0001", Date: sunday, Shift: model.ShiftNight},
			kind:    apperror.ErrValidation,
			message: "reservations are not accepted on Sundays; next available date is 10-19-2026",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.engine.CreateReservation(ctx, tt.in)
			assert.Nil(t, res)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, apperror.Message(err))
		})
	}

	res, err := f.engine.CreateReservation(ctx, NewReservation{
		EventName: " Junta ", ClientID: "c0001", RoomID: "s0001", Date: friday.Add(15 * time.Hour), Shift: model.ShiftAfternoon,
	})
	require.NoError(t, err, "exactly two days ahead is accepted")
	assert.Equal(t, "Junta", res.EventName)
	assert.Equal(t, "C0001", res.ClientID)
	assert.Equal(t, friday, res.Date)
	assert.Equal(t, []string{queue.EventCreated}, f.pub.Types(), "rejected requests publish nothing")
}

func TestConcurrentCreateSameSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	a := newFixtureAt(t, path)
	b := newFixtureAt(t, path)
	ctx := context.Background()
	a.client(t, "Ana", "Pérez")
	b.client(t, "Luis", "Garza")

	const rounds = 20
	for i := 0; i < rounds; i++ {
		a.room(t, fmt.Sprintf("Sala %02d", i), 10)
	}

	engines := []*Engine{a.engine, b.engine}
	for i := 0; i < rounds; i++ {
		roomID := model.CategoryRoom.FormatID(int64(i + 1))
		errs := make([]error, len(engines))
		race(len(engines), func(w int) {
			_, errs[w] = engines[w].CreateReservation(ctx, NewReservation{
				EventName: "Evento", ClientID: model.CategoryClient.FormatID(int64(w + 1)),
				RoomID: roomID, Date: monday, Shift: model.ShiftNight,
			})
		})

		var ok, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperror.ErrConflict):
				conflicts++
			default:
				t.Fatalf("room %s: unexpected error: %v", roomID, err)
			}
		}
		assert.Equal(t, 1, ok, roomID)
		assert.Equal(t, 1, conflicts, roomID)
	}

	list, err := b.engine.QueryByDate(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, list, rounds)
}

func TestConcurrentRegisterClientIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	engines := []*Engine{newFixtureAt(t, path).engine, newFixtureAt(t, path).engine}
	ctx := context.Background()

	const perEngine = 20
	ids := make([][]string, len(engines))
	errs := make([]error, len(engines))
	race(len(engines), func(w int) {
		for i := 0; i < perEngine; i++ {
			c, err := engines[w].RegisterClient(ctx, fmt.Sprintf("Cliente %d", i), fmt.Sprintf("Motor %d", w))
			if err != nil {
				errs[w] = err
				return
			}
			ids[w] = append(ids[w], c.ID)
		}
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, list := range ids {
		for _, id := range list {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	for n := 1; n <= len(engines)*perEngine; n++ {
		assert.True(t, seen[model.CategoryClient.FormatID(int64(n))], "missing id %d", n)
	}

	clients, err := engines[0].ListClientsSorted(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, len(engines)*perEngine)
}

func TestEditEventName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "Ana", "Pérez")
	f.room(t, "Sala A", 10)
	res, err := f.engine.CreateReservation(ctx, NewReservation{
		EventName: "Taller", ClientID: "C0001", RoomID: "S0001", Date: saturday, Shift: model.ShiftNight,
	})
	require.NoError(t, err)

	f.clock.Set(wednesday.Add(time.Hour))
	edited, err := f.engine.EditEventName(ctx, res.Folio, "  Taller de Go ")
	require.NoError(t, err)
	assert.Equal(t, "Taller de Go", edited.EventName)
	assert.True(t, edited.UpdatedAt.Equal(wednesday.Add(time.Hour)))

	stored, err := f.engine.GetReservation(ctx, res.Folio)
	require.NoError(t, err)
	assert.Equal(t, "Taller de Go", stored.EventName)
	assert.Equal(t, res.Folio, stored.Folio)
	assert.Equal(t, res.ClientID, stored.ClientID)
	assert.Equal(t, res.RoomID, stored.RoomID)
	assert.Equal(t, res.Date, stored.Date)
	assert.Equal(t, res.Shift, stored.Shift)
	assert.Equal(t, model.StatusActive, stored.Status)

	_, err = f.engine.EditEventName(ctx, res.Folio, "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.engine.EditEventName(ctx, 99, "x")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.engine.CancelReservation(ctx, res.Folio)
	require.NoError(t, err)
	_, err = f.engine.EditEventName(ctx, res.Folio, "Otro")
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Equal(t, "cannot edit a cancelled reservation", apperror.Message(err))

	assert.Equal(t, []string{queue.EventCreated, queue.EventUpdated, queue.EventCancelled}, f.pub.Types())
}

func TestCancelReservationLeadTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "Ana", "Pérez")
	f.room(t, "Sala A", 10)

	onBoundary, err := f.engine.CreateReservation(ctx, NewReservation{
		EventName: "Límite", ClientID: "C0001", RoomID: "S0001", Date: friday, Shift: model.ShiftMorning,
	})
	require.NoError(t, err)
	tooLate, err := f.engine.CreateReservation(ctx, NewReservation{
		EventName: "Tarde", ClientID: "C0001", RoomID: "S0001", Date: saturday, Shift: model.ShiftMorning,
	})
	require.NoError(t, err)

	_, err = f.engine.CancelReservation(ctx, onBoundary.Folio)
	require.NoError(t, err, "exactly two days remaining is accepted")

	f.clock.Set(time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC))
	_, err = f.engine.CancelReservation(ctx, tooLate.Folio)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.Message(err), "days remaining: 1")

	stored, err := f.engine.GetReservation(ctx, tooLate.Folio)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, stored.Status, "a rejected cancellation changes nothing")

	_, err = f.engine.CancelReservation(ctx, onBoundary.Folio)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = f.engine.CancelReservation(ctx, 1234)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "Ana", "Pérez")
	f.room(t, "Sala A", 10)
	f.room(t, "Sala B", 6)

	book := func(room string, date time.Time, shift model.Shift) int64 {
		res, err := f.engine.CreateReservation(ctx, NewReservation{
			EventName: "Evento", ClientID: "C0001", RoomID: room, Date: date, Shift: shift,
		})
		require.NoError(t, err)
		return res.Folio
	}
	n1 := book("S0001", saturday, model.ShiftNight)
	m1 := book("S0002", monday, model.ShiftMorning)
	m2 := book("S0001", saturday, model.ShiftMorning)
	a1 := book("S0002", saturday, model.ShiftAfternoon)

	byDate, err := f.engine.QueryByDate(ctx, saturday)
	require.NoError(t, err)
	assert.Equal(t, []int64{m2, a1, n1}, folioList(byDate))

	byRange, err := f.engine.QueryRange(ctx, friday, monday)
	require.NoError(t, err)
	assert.Equal(t, []int64{n1, m2, a1, m1}, folioList(byRange))

	inverted, err := f.engine.QueryRange(ctx, monday, friday)
	require.NoError(t, err)
	assert.Empty(t, inverted)

	free, err := f.engine.AvailableRooms(ctx, saturday, model.ShiftMorning)
	require.NoError(t, err)
	assert.Equal(t, []string{"S0002"}, roomIDs(free))

	_, err = f.engine.AvailableRooms(ctx, saturday, "LATE")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func folioList(list []model.Reservation) []int64 {
	out := []int64{}
	for _, r := range list {
		out = append(out, r.Folio)
	}
	return out
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "Ana", "Pérez")
	f.room(t, "Sala A", 10)
	f.pub.err = errors.New("broker down")

	res, err := f.engine.CreateReservation(ctx, NewReservation{
		EventName: "Taller", ClientID: "C0001", RoomID: "S0001", Date: saturday, Shift: model.ShiftMorning,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Folio)
	assert.Contains(t, f.logs.String(), "LEVEL=WARNING MESSAGE=event publish failed ACTION=reservation.created FOLIO=1")
}

func TestClosedStoreIsInfrastructureError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.store.Close())

	_, err := f.engine.RegisterClient(context.Background(), "Ana", "Pérez")
	require.ErrorIs(t, err, apperror.ErrInfrastructure)
	assert.Contains(t, f.logs.String(), "LEVEL=ERROR MESSAGE=store failure")

	_, err = f.engine.QueryByDate(context.Background(), saturday)
	assert.ErrorIs(t, err, apperror.ErrInfrastructure)
}
