package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// NextID allocates the next identifier of category in its own transaction
// and returns it formatted, e.g. "C0007".  Values handed out are never
// reissued even if the caller never uses them.
func (e *Engine) NextID(ctx context.Context, category model.Category) (string, error) {
	if !category.Valid() {
		return "", apperror.Validation("unknown id category %q", string(category))
	}
	var id string
	err := e.inTx(ctx, "next id", func(tx *sql.Tx) error {
		n, err := e.store.Counters.NextTx(ctx, tx, category)
		if err != nil {
			return err
		}
		id = category.FormatID(n)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RegisterClient trims both names, rejects empty ones and names already
// registered ignoring case, then stores the client under a fresh id.
func (e *Engine) RegisterClient(ctx context.Context, givenNames, surnames string) (*model.Client, error) {
	givenNames = strings.TrimSpace(givenNames)
	surnames = strings.TrimSpace(surnames)
	if givenNames == "" {
		return nil, apperror.Validation("given names must not be empty")
	}
	if surnames == "" {
		return nil, apperror.Validation("surnames must not be empty")
	}

	client := &model.Client{GivenNames: givenNames, Surnames: surnames}
	err := e.inTx(ctx, "register client", func(tx *sql.Tx) error {
		exists, err := e.store.Clients.ExistsByNameTx(ctx, tx, givenNames, surnames)
		if err != nil {
			return err
		}
		if exists {
			return duplicateClient(givenNames, surnames)
		}
		n, err := e.store.Counters.NextTx(ctx, tx, model.CategoryClient)
		if err != nil {
			return err
		}
		client.ID = model.CategoryClient.FormatID(n)
		if err := e.store.Clients.CreateTx(ctx, tx, client); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateClient(givenNames, surnames)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("client registered", logger.Action("register_client"), logger.Client(client.ID))
	return client, nil
}

func duplicateClient(givenNames, surnames string) error {
	return apperror.Duplicate("client %s %s is already registered", givenNames, surnames)
}

// RegisterRoom trims the name, rejects an empty name, a capacity below one
// and a name already registered ignoring case, then stores the room under
// a fresh id.
func (e *Engine) RegisterRoom(ctx context.Context, name string, capacity int) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("room name must not be empty")
	}
	if capacity <= 0 {
		return nil, apperror.Validation("room capacity must be greater than zero")
	}

	room := &model.Room{Name: name, Capacity: capacity}
	err := e.inTx(ctx, "register room", func(tx *sql.Tx) error {
		exists, err := e.store.Rooms.ExistsByNameTx(ctx, tx, name)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Duplicate("room %q is already registered", name)
		}
		n, err := e.store.Counters.NextTx(ctx, tx, model.CategoryRoom)
		if err != nil {
			return err
		}
		room.ID = model.CategoryRoom.FormatID(n)
		if err := e.store.Rooms.CreateTx(ctx, tx, room); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.Duplicate("room %q is already registered", name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("room registered", logger.Action("register_room"), logger.Room(room.ID), logger.Count(room.Capacity))
	return room, nil
}

// GetClient returns the client with id, or nil and no error when there is
// none.  Ids are matched after trimming and upper-casing.
func (e *Engine) GetClient(ctx context.Context, id string) (*model.Client, error) {
	c, err := e.store.Clients.GetByID(ctx, normalizeID(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, e.infra("get client", err)
	}
	return c, nil
}

// GetRoom returns the room with id, or nil and no error when there is none.
func (e *Engine) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	r, err := e.store.Rooms.GetByID(ctx, normalizeID(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, e.infra("get room", err)
	}
	return r, nil
}

// ListClientsSorted returns every client ordered by surnames, given names
// and id.
func (e *Engine) ListClientsSorted(ctx context.Context) ([]model.Client, error) {
	clients, err := e.store.Clients.ListSorted(ctx)
	if err != nil {
		return nil, e.infra("list clients", err)
	}
	return clients, nil
}

// ListRooms returns every room ordered by id.
func (e *Engine) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := e.store.Rooms.List(ctx)
	if err != nil {
		return nil, e.infra("list rooms", err)
	}
	return rooms, nil
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
