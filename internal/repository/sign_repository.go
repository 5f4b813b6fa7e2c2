package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
)

// CandidateFilter scopes the candidate search for one reservation.
// SellerScope equal to domain.SellerUnassigned selects signs whose
// seller is unset; any other value restricts the search to the pool of
// that profile.
type CandidateFilter struct {
	SellerScope       uuid.UUID
	MaterialID        uuid.UUID
	OfferConst        *uuid.UUID
	VariationConst    *uuid.UUID
	ModificationConst *uuid.UUID
}

// BatchGroup is one row of the per-order export: a print batch with its
// material variant and how many signs it holds.
type BatchGroup struct {
	BatchID           uuid.UUID  `json:"batch_id"`
	MaterialID        uuid.UUID  `json:"material_id"`
	OfferConst        *uuid.UUID `json:"offer_const,omitempty"`
	VariationConst    *uuid.UUID `json:"variation_const,omitempty"`
	ModificationConst *uuid.UUID `json:"modification_const,omitempty"`
	Total             int        `json:"total"`
}

type SignRepository struct {
	db *sql.DB
}

func NewSignRepository(db *sql.DB) *SignRepository {
	return &SignRepository{db: db}
}

const signEventColumns = `
	event.id, event.sign_id, event.order_id, event.status,
	event.profile_id, event.seller_id, event.material_id,
	event.offer_const, event.variation_const, event.modification_const,
	event.batch_id, event.created_at
`

// FindOneNew returns at most one New-status sign event matching the
// filter, or ErrNoCandidateSign. Only current events qualify: the query
// joins through the sign's current-event pointer.
func (r *SignRepository) FindOneNew(ctx context.Context, filter CandidateFilter) (*domain.SignEvent, error) {
	query := `
		SELECT ` + signEventColumns + `
		FROM sign_events event
		JOIN signs main ON main.event_id = event.id
		WHERE event.status = $1
		  AND event.material_id = $2
		  AND (($3 AND event.seller_id IS NULL) OR (NOT $3 AND event.profile_id = $4))
		  AND event.offer_const IS NOT DISTINCT FROM $5
		  AND event.variation_const IS NOT DISTINCT FROM $6
		  AND event.modification_const IS NOT DISTINCT FROM $7
		LIMIT 1
	`

	unowned := filter.SellerScope == domain.SellerUnassigned

	row := r.db.QueryRowContext(ctx, query,
		domain.SignStatusNew,
		filter.MaterialID,
		unowned,
		filter.SellerScope,
		nullUUID(filter.OfferConst),
		nullUUID(filter.VariationConst),
		nullUUID(filter.ModificationConst),
	)

	event, err := scanSignEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoCandidateSign
		}
		return nil, fmt.Errorf("candidate sign query error: %v", err)
	}

	return event, nil
}

// EventByID loads one event of the history regardless of currency.
func (r *SignRepository) EventByID(ctx context.Context, eventID uuid.UUID) (*domain.SignEvent, error) {
	query := `
		SELECT ` + signEventColumns + `
		FROM sign_events event
		WHERE event.id = $1
	`

	event, err := scanSignEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSignEventNotFound
		}
		return nil, fmt.Errorf("sign event query error: %v", err)
	}

	return event, nil
}

// ProcessByOrder lists the current Process-status events reserved for
// the order.
func (r *SignRepository) ProcessByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SignEvent, error) {
	query := `
		SELECT ` + signEventColumns + `
		FROM sign_events event
		JOIN signs main ON main.event_id = event.id
		WHERE event.status = $1 AND event.order_id = $2
		ORDER BY event.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, domain.SignStatusProcess, orderID)
	if err != nil {
		return nil, fmt.Errorf("signs by order query error: %v", err)
	}
	defer rows.Close()

	var events []domain.SignEvent
	for rows.Next() {
		event, err := scanSignEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sign event scan error: %v", err)
		}
		events = append(events, *event)
	}

	return events, rows.Err()
}

// AppendProcess appends a Process-status event with the computed
// invariable and moves the sign's current-event pointer onto it, in one
// transaction. The history itself is never rewritten.
func (r *SignRepository) AppendProcess(ctx context.Context, signID, orderID uuid.UUID, invariable domain.ReservationInvariable) (*domain.SignEvent, error) {
	return r.appendEvent(ctx, signID, &orderID, domain.SignStatusProcess, invariable)
}

// AppendCancel returns the sign to the free pool: a fresh New-status
// event without order binding, seller or batch. Material identity and
// owning pool survive so the sign is immediately reusable.
func (r *SignRepository) AppendCancel(ctx context.Context, event *domain.SignEvent) (*domain.SignEvent, error) {
	invariable := domain.ReservationInvariable{
		ProfileID:         event.Invariable.ProfileID,
		MaterialID:        event.Invariable.MaterialID,
		OfferConst:        event.Invariable.OfferConst,
		VariationConst:    event.Invariable.VariationConst,
		ModificationConst: event.Invariable.ModificationConst,
	}

	return r.appendEvent(ctx, event.SignID, nil, domain.SignStatusNew, invariable)
}

func (r *SignRepository) appendEvent(ctx context.Context, signID uuid.UUID, orderID *uuid.UUID, status domain.SignStatus, invariable domain.ReservationInvariable) (*domain.SignEvent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sign event transaction error: %v", err)
	}
	defer tx.Rollback()

	eventID := uuid.New()

	insert := `
		INSERT INTO sign_events (
			id, sign_id, order_id, status, profile_id, seller_id,
			material_id, offer_const, variation_const, modification_const, batch_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(ctx, insert,
		eventID,
		signID,
		nullUUID(orderID),
		status,
		invariable.ProfileID,
		nullUUID(invariable.SellerID),
		invariable.MaterialID,
		nullUUID(invariable.OfferConst),
		nullUUID(invariable.VariationConst),
		nullUUID(invariable.ModificationConst),
		nullUUID(invariable.BatchID),
	)
	if err != nil {
		return nil, fmt.Errorf("sign event insert error: %v", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE signs SET event_id = $2 WHERE id = $1`, signID, eventID)
	if err != nil {
		return nil, fmt.Errorf("sign pointer update error: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("sign not found: %s", signID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sign event commit error: %v", err)
	}

	return r.EventByID(ctx, eventID)
}

// GroupedByOrder lists the order's Process-status signs grouped by print
// batch for export.
func (r *SignRepository) GroupedByOrder(ctx context.Context, orderID uuid.UUID) ([]BatchGroup, error) {
	query := `
		SELECT event.batch_id, event.material_id,
		       event.offer_const, event.variation_const, event.modification_const,
		       COUNT(*) AS total
		FROM sign_events event
		JOIN signs main ON main.event_id = event.id
		WHERE event.status = $1 AND event.order_id = $2 AND event.batch_id IS NOT NULL
		GROUP BY event.batch_id, event.material_id,
		         event.offer_const, event.variation_const, event.modification_const
		ORDER BY event.batch_id
	`

	rows, err := r.db.QueryContext(ctx, query, domain.SignStatusProcess, orderID)
	if err != nil {
		return nil, fmt.Errorf("grouped signs query error: %v", err)
	}
	defer rows.Close()

	var groups []BatchGroup
	for rows.Next() {
		var group BatchGroup
		var offer, variation, modification uuid.NullUUID

		err := rows.Scan(
			&group.BatchID,
			&group.MaterialID,
			&offer,
			&variation,
			&modification,
			&group.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("grouped signs scan error: %v", err)
		}

		group.OfferConst = fromNullUUID(offer)
		group.VariationConst = fromNullUUID(variation)
		group.ModificationConst = fromNullUUID(modification)

		groups = append(groups, group)
	}

	return groups, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignEvent(row rowScanner) (*domain.SignEvent, error) {
	event := &domain.SignEvent{}
	var orderID, sellerID, offer, variation, modification, batch uuid.NullUUID

	err := row.Scan(
		&event.ID,
		&event.SignID,
		&orderID,
		&event.Status,
		&event.Invariable.ProfileID,
		&sellerID,
		&event.Invariable.MaterialID,
		&offer,
		&variation,
		&modification,
		&batch,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.OrderID = fromNullUUID(orderID)
	event.Invariable.SellerID = fromNullUUID(sellerID)
	event.Invariable.OfferConst = fromNullUUID(offer)
	event.Invariable.VariationConst = fromNullUUID(variation)
	event.Invariable.ModificationConst = fromNullUUID(modification)
	event.Invariable.BatchID = fromNullUUID(batch)

	return event, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fromNullUUID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	value := id.UUID
	return &value
}
