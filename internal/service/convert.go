package service

import (
	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/ledger"
	"github.com/harborworks/drydock/internal/pricing"
	"github.com/harborworks/drydock/internal/repository"
)

// pricingItem maps a stored line item into the pure pricing input.
func pricingItem(li repository.LineItem) pricing.LineItem {
	return pricing.LineItem{
		PricingMode:     domain.PricingMode(li.PricingMode),
		Category:        domain.LineItemCategory(li.Category),
		Quantity:        li.Quantity,
		UnitCostCents:   li.UnitCostCents,
		LaborHours:      repository.FromNumeric(li.LaborHours),
		FixedPriceCents: li.FixedPriceCents,
		DiscountCents:   li.DiscountCents,
		DiscountPercent: repository.FromNumeric(li.DiscountPercent),
		TaxCents:        li.TaxCents,
		TaxPercent:      repository.FromNumeric(li.TaxPercent),
		Taxable:         li.Taxable,
		Hidden:          li.Hidden,
		Status:          domain.LineItemStatus(li.Status),
	}
}

// ledgerEntry maps a stored transaction into the pure balance input.
func ledgerEntry(txn repository.Transaction) ledger.Transaction {
	return ledger.Transaction{
		ID:               repository.FromUUID(txn.ID),
		Kind:             domain.TransactionKind(txn.Kind),
		Status:           domain.TransactionStatus(txn.Status),
		AmountCents:      txn.AmountCents,
		Gateway:          txn.Gateway,
		PaymentReference: repository.FromText(txn.PaymentReference),
	}
}

func ledgerEntries(txns []repository.Transaction) []ledger.Transaction {
	out := make([]ledger.Transaction, len(txns))
	for i, txn := range txns {
		out[i] = ledgerEntry(txn)
	}
	return out
}
