package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/goto/scout/core/search"
)

// EntityRepository resolves facet bucket identifiers against the
// entities table. It implements search.EntityLookup with a single
// batched query per call.
type EntityRepository struct {
	client *Client
}

func NewEntityRepository(client *Client) *EntityRepository {
	return &EntityRepository{client: client}
}

type entityModel struct {
	ID   string `db:"id"`
	Kind string `db:"kind"`
	Name string `db:"name"`
}

func (m entityModel) toEntity() search.Entity {
	return search.Entity{
		ID:         m.ID,
		EntityKind: m.Kind,
		Name:       m.Name,
	}
}

// GetMany fetches all entities of one kind by identifier. Unresolved
// identifiers are simply absent from the returned map.
func (r *EntityRepository) GetMany(ctx context.Context, kind string, ids []string) (map[string]search.Entity, error) {
	entities := map[string]search.Entity{}
	if len(ids) == 0 {
		return entities, nil
	}

	query, args, err := sq.Select("id", "kind", "name").
		From("entities").
		Where(sq.Eq{"kind": kind, "id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building entity query: %w", err)
	}

	var models []entityModel
	if err := r.client.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching entities: %w", err)
	}

	for _, model := range models {
		entities[model.ID] = model.toEntity()
	}
	return entities, nil
}
