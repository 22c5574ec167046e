package reconcile

import (
	"context"
	"strings"

	"github.com/mamadbah2/husk/internal/domain/models"
)

func clientID(c models.Client) string { return c.ID }

// Clients returns the known clients.
func (l *Ledger) Clients() []models.Client {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.clients)
}

// AddClient registers a client by name. Blank and duplicate names are
// rejected. The record store copy is best effort.
func (l *Ledger) AddClient(ctx context.Context, name string) (models.Client, Result, error) {
	name = strings.TrimSpace(name)
	c := models.Client{ID: models.NewID(), Name: name}
	if err := c.Validate(); err != nil {
		return models.Client{}, Result{}, err
	}

	l.mu.Lock()
	for _, existing := range l.clients {
		if existing.Name == name {
			l.mu.Unlock()
			return models.Client{}, Result{}, models.NewValidationError("name", "already_exists")
		}
	}
	l.clients = append(l.clients, c)
	l.mu.Unlock()
	l.notify(KindClients)

	res := l.persist(ctx, KindClients, OpCreate, c.ID, func(ctx context.Context, r RemoteStore) error {
		return r.CreateClient(ctx, c)
	})
	return c, res, nil
}

// DeleteClient removes client id.
func (l *Ledger) DeleteClient(ctx context.Context, id string) Result {
	l.mu.Lock()
	l.clients = without(l.clients, id, clientID)
	l.mu.Unlock()
	l.notify(KindClients)

	res := l.persist(ctx, KindClients, OpDelete, id, func(ctx context.Context, r RemoteStore) error {
		return r.DeleteClient(ctx, id)
	})
	return res
}
