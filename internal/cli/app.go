// Package cli is the interactive text menu of the booking desk.  It parses
// and formats dates as mm-dd-yyyy and delegates every rule to the
// reservation engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/report"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

// Options tunes the menu.
type Options struct {
	ExportDir     string // where daily reports are exported
	PreviousState bool   // whether the store existed before this run
	Pause         bool   // wait for ENTER after each option
}

// App runs the menu over an engine.
type App struct {
	engine *service.Engine
	opts   Options
	p      *prompter
}

// New wires an App reading from in and writing to out.
func New(engine *service.Engine, in io.Reader, out io.Writer, opts Options) *App {
	if opts.ExportDir == "" {
		opts.ExportDir = "exports"
	}
	return &App{
		engine: engine,
		opts:   opts,
		p:      &prompter{in: bufio.NewScanner(in), out: out},
	}
}

type menuItem struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

func (a *App) menu() []menuItem {
	return []menuItem{
		{"1", "Book a room", a.createReservation},
		{"2", "Edit the event name of a reservation", a.editEventName},
		{"3", "Show the reservations of a date", a.dailyReport},
		{"4", "Cancel a reservation", a.cancelReservation},
		{"5", "Register a new client", a.registerClient},
		{"6", "Register a room", a.registerRoom},
		{"7", "Exit", nil},
	}
}

// Run shows the menu until the user exits or input ends.  Only errors
// reading the input are returned; engine failures are reported on screen
// and the menu continues.
func (a *App) Run(ctx context.Context) error {
	p := a.p
	p.println(strings.Repeat("=", 60))
	p.println("COWORKING ROOM RESERVATIONS")
	p.println(strings.Repeat("=", 60))
	if a.opts.PreviousState {
		p.println(">>> Previous state found; continuing with saved data.")
	} else {
		p.println(">>> No previous state found; starting empty.")
	}

	items := a.menu()
	for {
		p.println()
		p.println(strings.Repeat("=", 60))
		p.println("MAIN MENU")
		p.println(strings.Repeat("=", 60))
		for _, it := range items {
			p.printf("  %s. %s\n", it.key, it.label)
		}
		p.println(strings.Repeat("=", 60))

		choice, err := p.line("Choose an option: ")
		if err != nil {
			return ignoreEOF(err)
		}
		if choice == "7" {
			ok, err := p.confirm("Exit the system? (Y/N): ")
			if err != nil {
				return ignoreEOF(err)
			}
			if ok {
				p.println("Goodbye. All data is kept in the store.")
				return nil
			}
			p.println("Back to the main menu.")
			continue
		}

		var item *menuItem
		for i := range items {
			if items[i].key == choice && items[i].run != nil {
				item = &items[i]
			}
		}
		if item == nil {
			p.println("! Invalid option.")
			continue
		}
		p.println(rule())
		p.println(strings.ToUpper(item.label))
		p.println(rule())
		if err := item.run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !errors.Is(err, errAbort) {
				return err
			}
			p.println("Operation cancelled.")
		}
		if a.opts.Pause {
			if _, err := p.line("\n[Press ENTER to continue...]"); err != nil {
				return ignoreEOF(err)
			}
		}
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// report prints an engine error.  The menu always goes on afterwards.
func (a *App) report(err error) error {
	if apperror.KindOf(err) == apperror.KindInfrastructure {
		a.p.printf("\nx Database error: %s\n", apperror.Message(err))
		return nil
	}
	a.p.printf("\nx Error: %s\n", apperror.Message(err))
	return nil
}

func (a *App) clientsTable(clients []model.Client) string {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{c.ID, c.DisplayName()})
	}
	return report.Table([]string{"Client ID", "Surnames, Given names"}, rows)
}

func reservationsTable(list []model.Reservation) string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{strconv.FormatInt(r.Folio, 10), r.EventName, formatDate(r.Date)})
	}
	return report.Table([]string{"Folio", "Event name", "Date"}, rows)
}

func (a *App) createReservation(ctx context.Context) error {
	p := a.p
	clients, err := a.engine.ListClientsSorted(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(clients) == 0 {
		p.println("! No clients registered. Register a client first.")
		return nil
	}
	rooms, err := a.engine.ListRooms(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(rooms) == 0 {
		p.println("! No rooms registered. Register a room first.")
		return nil
	}

	table := a.clientsTable(clients)
	p.println("\nRegistered clients (alphabetical):")
	p.println(table)
	clientID, err := p.selection("\nClient ID (or CANCEL): ", func(v string) bool {
		c, err := a.engine.GetClient(ctx, v)
		return err == nil && c != nil
	}, func() {
		p.println("\n! That client ID does not exist.")
		p.println(table)
	})
	if err != nil {
		return err
	}

	pol := a.engine.Policy()
	today := a.engine.Today()
	p.printf("\nToday is %s\n", formatDate(today))
	p.printf("The date must be %s or later\n", formatDate(pol.MinBookableDate(today)))
	var (
		date  time.Time
		shift model.Shift
	)
	for {
		d, err := p.date("\nReservation date (mm-dd-yyyy): ", false, today)
		if err != nil {
			return err
		}
		if err := pol.CheckAdvance(d, today); err != nil {
			p.printf("! %s\n", apperror.Message(err))
			continue
		}
		if monday, moved := policy.ProposeDate(d); moved {
			p.println("\n! Reservations are not accepted on Sundays.")
			p.printf("  Proposed date: the following Monday, %s\n", formatDate(monday))
			ok, err := p.confirm("Accept this date? (Y/N): ")
			if err != nil {
				return err
			}
			if !ok {
				p.println("Please enter another date.")
				continue
			}
			d = monday
		}
		date = d
		break
	}

	p.println("\nShifts:  M) Morning   A) Afternoon   N) Night")
	for {
		raw, err := p.line("Shift [M/A/N]: ")
		if err != nil {
			return err
		}
		if s, err := model.ParseShift(raw); err == nil {
			shift = s
			break
		}
		p.println("! Invalid shift. Use M, A or N.")
	}

	free, err := a.engine.AvailableRooms(ctx, date, shift)
	if err != nil {
		return a.report(err)
	}
	if len(free) == 0 {
		p.printf("\n! No rooms available for the %s shift on %s\n", shift.Label(), formatDate(date))
		return nil
	}
	rows := make([][]string, 0, len(free))
	for _, r := range free {
		rows = append(rows, []string{r.ID, r.Name, strconv.Itoa(r.Capacity)})
	}
	p.printf("\nRooms available for the %s shift on %s:\n", shift.Label(), formatDate(date))
	p.println(report.Table([]string{"Room ID", "Name", "Capacity"}, rows))
	roomID, err := p.selection("\nRoom ID (or CANCEL): ", func(v string) bool {
		for _, r := range free {
			if strings.EqualFold(r.ID, v) {
				return true
			}
		}
		return false
	}, func() { p.println("! Room not available or not valid.") })
	if err != nil {
		return err
	}

	event, err := p.nonEmpty("\nEvent name: ")
	if err != nil {
		return err
	}

	res, err := a.engine.CreateReservation(ctx, service.NewReservation{
		EventName: event,
		ClientID:  clientID,
		RoomID:    roomID,
		Date:      date,
		Shift:     shift,
	})
	if err != nil {
		return a.report(err)
	}
	client, _ := a.engine.GetClient(ctx, res.ClientID)
	room, _ := a.engine.GetRoom(ctx, res.RoomID)

	p.println("\n" + rule())
	p.println("RESERVATION REGISTERED")
	p.println(rule())
	p.printf("  Folio:   %d\n", res.Folio)
	p.printf("  Event:   %s\n", res.EventName)
	if client != nil {
		p.printf("  Client:  %s\n", client.DisplayName())
	}
	if room != nil {
		p.printf("  Room:    %s\n", room.Name)
	}
	p.printf("  Date:    %s\n", formatDate(res.Date))
	p.printf("  Shift:   %s\n", res.Shift.Label())
	p.println(rule())
	return nil
}

// pickInRange lists the active reservations between two prompted dates
// and lets the user choose one folio.  A nil result with no error means
// there was nothing to choose from.
func (a *App) pickInRange(ctx context.Context, what string) (*model.Reservation, error) {
	p := a.p
	today := a.engine.Today()
	from, err := p.date("Start of the range (mm-dd-yyyy): ", false, today)
	if err != nil {
		return nil, err
	}
	to, err := p.date("End of the range (mm-dd-yyyy): ", false, today)
	if err != nil {
		return nil, err
	}
	list, err := a.engine.QueryRange(ctx, from, to)
	if err != nil {
		return nil, a.report(err)
	}
	if len(list) == 0 {
		p.printf("\n! No active reservations between %s and %s\n", formatDate(from), formatDate(to))
		return nil, nil
	}

	table := reservationsTable(list)
	p.printf("\nReservations from %s to %s:\n", formatDate(from), formatDate(to))
	p.println(table)
	var picked *model.Reservation
	_, err = p.selection("\nFolio of the reservation to "+what+" (or CANCEL): ", func(v string) bool {
		folio, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false
		}
		for i := range list {
			if list[i].Folio == folio {
				picked = &list[i]
				return true
			}
		}
		return false
	}, func() {
		p.println("\n! That folio is not in this range.")
		p.println(table)
	})
	if err != nil {
		return nil, err
	}
	return picked, nil
}

func (a *App) editEventName(ctx context.Context) error {
	res, err := a.pickInRange(ctx, "edit")
	if err != nil || res == nil {
		return err
	}
	name, err := a.p.nonEmpty("\nNew event name: ")
	if err != nil {
		return err
	}
	if _, err := a.engine.EditEventName(ctx, res.Folio, name); err != nil {
		return a.report(err)
	}
	a.p.println("\nEvent name updated.")
	return nil
}

func (a *App) cancelReservation(ctx context.Context) error {
	p := a.p
	res, err := a.pickInRange(ctx, "cancel")
	if err != nil || res == nil {
		return err
	}
	client, _ := a.engine.GetClient(ctx, res.ClientID)
	room, _ := a.engine.GetRoom(ctx, res.RoomID)

	p.println("\n" + rule())
	p.println("RESERVATION TO CANCEL:")
	p.println(rule())
	p.printf("  Folio:   %d\n", res.Folio)
	p.printf("  Event:   %s\n", res.EventName)
	if client != nil {
		p.printf("  Client:  %s\n", client.DisplayName())
	} else {
		p.printf("  Client:  %s\n", res.ClientID)
	}
	if room != nil {
		p.printf("  Room:    %s\n", room.Name)
	} else {
		p.printf("  Room:    %s\n", res.RoomID)
	}
	p.printf("  Date:    %s\n", formatDate(res.Date))
	p.printf("  Shift:   %s\n", res.Shift.Label())
	p.println(rule())

	ok, err := p.confirm("\nCancel this reservation? (Y/N): ")
	if err != nil {
		return err
	}
	if !ok {
		p.println("Cancellation aborted.")
		return nil
	}
	if _, err := a.engine.CancelReservation(ctx, res.Folio); err != nil {
		return a.report(err)
	}
	p.println("\nReservation cancelled. The room is available again for that shift.")
	return nil
}

func (a *App) dailyReport(ctx context.Context) error {
	p := a.p
	p.println("(Leave empty for today's date)")
	date, err := p.date("Date (mm-dd-yyyy): ", true, a.engine.Today())
	if err != nil {
		return err
	}
	daily, err := report.BuildDaily(ctx, a.engine, date)
	if err != nil {
		return a.report(err)
	}
	if len(daily.Rows) == 0 {
		p.printf("\nNo reservations on %s.\n", formatDate(date))
		return nil
	}

	p.println("\n" + strings.Repeat("=", 80))
	p.println("  " + daily.Title())
	p.println(strings.Repeat("=", 80))
	p.println(daily.Table())

	p.println("\n" + rule())
	p.println("Export the report?")
	p.println("  1) CSV")
	p.println("  2) JSON")
	p.println("  3) Excel (XLSX)")
	p.println("  0) Do not export")
	p.println(rule())
	choice, err := p.line("Choose an option: ")
	if err != nil {
		return err
	}
	formats := map[string]report.Format{"1": report.FormatCSV, "2": report.FormatJSON, "3": report.FormatXLSX}
	f, ok := formats[choice]
	if !ok {
		p.println("\nThe report was not exported.")
		return nil
	}
	path, err := report.Export(a.opts.ExportDir, daily, f)
	if err != nil {
		p.printf("\nx Export failed: %v\n", err)
		return nil
	}
	p.printf("\nReport exported to %s\n", path)
	return nil
}

func (a *App) registerClient(ctx context.Context) error {
	p := a.p
	given, err := p.nonEmpty("Given names: ")
	if err != nil {
		return err
	}
	surnames, err := p.nonEmpty("Surnames: ")
	if err != nil {
		return err
	}
	c, err := a.engine.RegisterClient(ctx, given, surnames)
	if err != nil {
		return a.report(err)
	}
	p.println("\nClient registered")
	p.printf("  Client ID: %s\n", c.ID)
	p.printf("  Name: %s %s\n", c.GivenNames, c.Surnames)
	return nil
}

func (a *App) registerRoom(ctx context.Context) error {
	p := a.p
	name, err := p.nonEmpty("Room name: ")
	if err != nil {
		return err
	}
	capacity, err := p.integer("Room capacity: ", 1)
	if err != nil {
		return err
	}
	r, err := a.engine.RegisterRoom(ctx, name, capacity)
	if err != nil {
		return a.report(err)
	}
	p.println("\nRoom registered")
	p.printf("  Room ID: %s\n", r.ID)
	p.printf("  Name: %s\n", r.Name)
	p.printf("  Capacity: %d\n", r.Capacity)
	return nil
}
