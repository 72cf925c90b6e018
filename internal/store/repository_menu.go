package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/models"
	"github.com/jackc/pgerrcode"
)

// menuRepository is the PostgreSQL-backed implementation of [MenuRepository].
// It maintains the authoritative "menu_items" table that clients reconcile
// their local catalogs against.
//
// Queries are built with squirrel using $N placeholders. All methods obtain a
// context-scoped logger via [logger.FromContext] for structured, request-level
// tracing of database interactions.
type menuRepository struct {
	logger  *logger.Logger
	db      *DB
	builder sq.StatementBuilderType
}

// NewMenuRepository constructs a [MenuRepository] backed by the provided
// database connection and logger.
func NewMenuRepository(db *DB, logger *logger.Logger) MenuRepository {
	logger.Debug().Msg("creating menu repository")
	return &menuRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var menuItemColumns = []string{
	"id",
	"name",
	"description",
	"price",
	"image",
	"image_dropped",
	"available_quantity",
	"is_available",
	"updated_at",
}

// UpsertItem inserts the item or, when the id already exists, overwrites the
// stored row in place. The operation is idempotent: repeating it with the same
// payload leaves the table unchanged.
//
// Error handling:
//   - PostgreSQL check_violation (23514) → [ErrNegativePrice].
//   - Retryable driver errors (connection loss, deadlock) → [ErrTemporarilyUnavailable].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *menuRepository) UpsertItem(ctx context.Context, item models.Item) (models.Item, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Insert("menu_items").
		Columns(menuItemColumns...).
		Values(
			item.ID,
			item.Name,
			item.Description,
			item.Price,
			item.Image,
			item.ImageDropped,
			item.AvailableQuantity,
			item.IsAvailable,
			item.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name               = EXCLUDED.name,
			description        = EXCLUDED.description,
			price              = EXCLUDED.price,
			image              = EXCLUDED.image,
			image_dropped      = EXCLUDED.image_dropped,
			available_quantity = EXCLUDED.available_quantity,
			is_available       = EXCLUDED.is_available,
			updated_at         = EXCLUDED.updated_at`).
		Suffix("RETURNING " + strings.Join(menuItemColumns, ", ")).
		ToSql()
	if err != nil {
		return models.Item{}, fmt.Errorf("build upsert query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	var saved models.Item
	if err = row.Scan(
		&saved.ID,
		&saved.Name,
		&saved.Description,
		&saved.Price,
		&saved.Image,
		&saved.ImageDropped,
		&saved.AvailableQuantity,
		&saved.IsAvailable,
		&saved.UpdatedAt,
	); err != nil {
		log.Err(err).Str("func", "*menuRepository.UpsertItem").Str("item_id", item.ID).Msg("error upserting menu item")
		return models.Item{}, r.mapDBError(err)
	}

	return saved, nil
}

// DeleteItem removes the item with the given id. [ErrItemNotFound] is returned
// when no row matched, so the transport layer can answer 404 and the client
// can treat the deletion as already done.
func (r *menuRepository) DeleteItem(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Delete("menu_items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*menuRepository.DeleteItem").Str("item_id", id).Msg("error deleting menu item")
		return r.mapDBError(err)
	}

	return affectedOrNotFound(res, ErrItemNotFound)
}

// ListItems returns every menu item ordered by id.
func (r *menuRepository) ListItems(ctx context.Context) ([]models.Item, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select(menuItemColumns...).
		From("menu_items").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*menuRepository.ListItems").Msg("error querying menu items")
		return nil, r.mapDBError(err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err = rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Price,
			&item.Image,
			&item.ImageDropped,
			&item.AvailableQuantity,
			&item.IsAvailable,
			&item.UpdatedAt,
		); err != nil {
			log.Err(err).Str("func", "*menuRepository.ListItems").Msg("error scanning menu item row")
			return nil, err
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", "*menuRepository.ListItems").Msg("error occurred during rows iteration")
		return nil, r.mapDBError(err)
	}

	return items, nil
}

// Ping verifies database liveness; backs the health probe endpoint.
func (r *menuRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *menuRepository) mapDBError(err error) error {
	switch postgresErrorCode(err) {
	case pgerrcode.CheckViolation: // price >= 0
		return ErrNegativePrice
	}
	if r.db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %v", ErrTemporarilyUnavailable, err)
	}

	return fmt.Errorf("unexpected DB error: %w", err)
}
