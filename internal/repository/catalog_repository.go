package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
)

// CatalogRepository resolves order lines against the materials catalog:
// which regulated materials a product requires and which material
// variant matches the trade offer the customer selected.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// MaterialComponents returns one component per material of the product
// line, with the variant constants matching the line's offer values. An
// empty result means the product needs no signs and the line is skipped.
func (r *CatalogRepository) MaterialComponents(ctx context.Context, item domain.OrderItem) ([]domain.MaterialComponent, error) {
	query := `
		SELECT pm.material_id, mv.offer_const, mv.variation_const, mv.modification_const
		FROM product_materials pm
		JOIN material_variants mv ON mv.material_id = pm.material_id
		WHERE pm.product_event_id = $1
		  AND mv.offer_value IS NOT DISTINCT FROM $2
		  AND mv.variation_value IS NOT DISTINCT FROM $3
		  AND mv.modification_value IS NOT DISTINCT FROM $4
		ORDER BY pm.material_id
	`

	rows, err := r.db.QueryContext(ctx, query,
		item.ProductEventID,
		nullString(item.OfferValue),
		nullString(item.VariationValue),
		nullString(item.ModificationValue),
	)
	if err != nil {
		return nil, fmt.Errorf("material components query error: %v", err)
	}
	defer rows.Close()

	var components []domain.MaterialComponent
	for rows.Next() {
		var component domain.MaterialComponent
		var offer, variation, modification uuid.NullUUID

		err := rows.Scan(&component.MaterialID, &offer, &variation, &modification)
		if err != nil {
			return nil, fmt.Errorf("material component scan error: %v", err)
		}

		component.OfferConst = fromNullUUID(offer)
		component.VariationConst = fromNullUUID(variation)
		component.ModificationConst = fromNullUUID(modification)

		components = append(components, component)
	}

	return components, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
