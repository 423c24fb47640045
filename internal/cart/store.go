package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/storage"
)

// Store persists the cart snapshot under the "cart" storage key.
type Store struct {
	kv     storage.Store
	logger *slog.Logger
}

func NewStore(kv storage.Store, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Load returns the last saved snapshot. A missing, unreadable or corrupt
// snapshot loads as an empty cart.
func (s *Store) Load(ctx context.Context) []domain.CartLine {
	data, err := s.kv.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read cart snapshot", "error", err)
		}
		return []domain.CartLine{}
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		s.logger.Warn("discarding corrupt cart snapshot", "error", err)
		return []domain.CartLine{}
	}

	return normalize(lines)
}

// Save overwrites the snapshot.
func (s *Store) Save(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, storage.KeyCart, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

// normalize drops lines without a positive quantity and merges duplicate
// product ids, so a hand-edited snapshot still satisfies the cart invariants.
func normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[domain.ProductID]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}
