package repository

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// UUID converts a google/uuid value to its pgtype representation.
func UUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// FromUUID converts a pgtype UUID back to a google/uuid value.
// Returns uuid.Nil for NULL columns.
func FromUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return uuid.UUID(id.Bytes)
}

// Numeric converts a decimal to its pgtype representation. Zero decimals
// map to a valid numeric zero so percent columns stay NOT NULL.
func Numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// FromNumeric converts a pgtype numeric back to a decimal.
// NULL and NaN columns map to decimal zero.
func FromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}

// Text converts a string to a pgtype text, mapping empty to NULL.
func Text(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// FromText converts a pgtype text back to a string, mapping NULL to empty.
func FromText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
