package recordstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// ListClients returns every client ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows []clientRow
	if err := db.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	out := make([]models.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Client{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// CreateClient inserts a client. Names are unique.
func (s *Store) CreateClient(ctx context.Context, c models.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return err
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&clientRow{}).Where("name = ?", c.Name).Count(&existing).Error; err != nil {
		return fmt.Errorf("check client %q: %w", c.Name, err)
	}
	if existing > 0 {
		return models.NewValidationError("name", "already_exists")
	}

	row := clientRow{ID: c.ID, Name: c.Name}
	if err := db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewValidationError("name", "already_exists")
		}
		return fmt.Errorf("insert client %s: %w", c.ID, err)
	}
	return nil
}

// DeleteClient removes client id. Unknown ids succeed silently.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&clientRow{}).Error; err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	return nil
}
