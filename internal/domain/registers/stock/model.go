// Package stock provides the stock movement register: the append-mostly
// ledger of signed quantity changes per (product, warehouse).
package stock

import (
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Cause classifies what produced a movement.
type Cause string

const (
	CauseSale             Cause = "sale"
	CausePurchaseReceipt  Cause = "purchase_receipt"
	CauseManualAdjustment Cause = "manual_adjustment"
	CauseTransfer         Cause = "transfer"
)

// Direction defines whether a movement increases or decreases the balance.
type Direction string

const (
	DirectionReceipt Direction = "receipt"
	DirectionExpense Direction = "expense"
)

// Movement is one line in the stock register. Movements are immutable:
// they are never updated, only deleted when their recording transaction
// is removed by an administrative override.
type Movement struct {
	// LineID is the unique identifier of this movement line.
	LineID id.ID `db:"line_id" json:"lineId"`

	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Quantity is always positive; Direction carries the sign.
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	Direction Direction      `db:"direction" json:"direction"`

	Cause Cause `db:"cause" json:"cause"`

	// RelatedTransactionID is a weak reference to the ledger transaction
	// that produced this movement, when there is one.
	RelatedTransactionID *id.ID `db:"related_transaction_id" json:"relatedTransactionId,omitempty"`

	// Period is the business date of the movement.
	Period time.Time `db:"period" json:"period"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement with generated LineID.
func NewMovement(productID, warehouseID id.ID, qty types.Quantity, direction Direction, cause Cause, period time.Time) Movement {
	return Movement{
		LineID:      id.New(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		Direction:   direction,
		Cause:       cause,
		Period:      period,
		CreatedAt:   time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign: receipt positive, expense negative.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.Direction == DirectionExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Balance is the current running stock balance for one (product, warehouse)
// pair: the prefix sum of all movements ordered by creation time.
type Balance struct {
	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
