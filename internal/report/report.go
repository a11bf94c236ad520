// Package report turns the daily reservation query into presentable rows:
// a plain text table for terminals and CSV, JSON or XLSX documents for
// export.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/policy"
)

// Source is the read side of the reservation engine used to build reports.
type Source interface {
	QueryByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	GetRoom(ctx context.Context, id string) (*model.Room, error)
}

// Headers are the column titles shared by every output format.
var Headers = []string{"Folio", "Event", "Client", "Room", "Shift", "Capacity"}

// Row is one reservation with its client and room resolved to names.
type Row struct {
	Folio    int64  `json:"folio"`
	Event    string `json:"event"`
	Client   string `json:"client"`
	Room     string `json:"room"`
	Shift    string `json:"shift"`
	Capacity int    `json:"capacity"`
}

// Strings renders r in column order.  An unknown capacity is left blank.
func (r Row) Strings() []string {
	capacity := ""
	if r.Capacity > 0 {
		capacity = fmt.Sprint(r.Capacity)
	}
	return []string{fmt.Sprint(r.Folio), r.Event, r.Client, r.Room, r.Shift, capacity}
}

// Daily is the report of the active reservations of one date, in shift
// order.
type Daily struct {
	Date time.Time `json:"date"`
	Rows []Row     `json:"rows"`
}

// Title is the heading printed above the table and in the spreadsheet.
func (d *Daily) Title() string {
	return "RESERVATIONS ON " + d.Date.Format(policy.DisplayLayout)
}

// BuildDaily queries the reservations of date and resolves names.  A client
// or room that cannot be resolved is shown by id.
func BuildDaily(ctx context.Context, src Source, date time.Time) (*Daily, error) {
	date = model.DateOf(date)
	list, err := src.QueryByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	clients := map[string]*model.Client{}
	rooms := map[string]*model.Room{}
	d := &Daily{Date: date, Rows: make([]Row, 0, len(list))}
	for _, res := range list {
		c, ok := clients[res.ClientID]
		if !ok {
			if c, err = src.GetClient(ctx, res.ClientID); err != nil {
				return nil, err
			}
			clients[res.ClientID] = c
		}
		room, ok := rooms[res.RoomID]
		if !ok {
			if room, err = src.GetRoom(ctx, res.RoomID); err != nil {
				return nil, err
			}
			rooms[res.RoomID] = room
		}

		row := Row{Folio: res.Folio, Event: res.EventName, Client: res.ClientID, Room: res.RoomID, Shift: res.Shift.Label()}
		if c != nil {
			row.Client = c.DisplayName()
		}
		if room != nil {
			row.Room = room.Name
			row.Capacity = room.Capacity
		}
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}

// Table renders d as a text table, or "" when there are no rows.
func (d *Daily) Table() string {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, r.Strings())
	}
	return Table(Headers, rows)
}

// Table lays out rows under headers with columns padded to their widest
// cell and separated by " | ".  It returns "" for no rows.
func Table(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) && len([]rune(row[i])) > widths[i] {
				widths[i] = len([]rune(row[i]))
			}
		}
	}

	format := func(cells []string) string {
		out := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			out[i] = cell + strings.Repeat(" ", widths[i]-len([]rune(cell)))
		}
		return strings.Join(out, " | ")
	}

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}
	lines := []string{format(headers), strings.Join(rules, "-+-")}
	for _, row := range rows {
		lines = append(lines, format(row))
	}
	return strings.Join(lines, "\n")
}
