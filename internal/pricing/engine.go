package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"laundryops/internal/domain"
)

// DefaultTotalWeightKg is reported when no per-kilogram item needs an order
// weight and none was given. It has no pricing effect.
const DefaultTotalWeightKg = 1.0

const (
	FieldItems         = "items"
	FieldTotalWeightKg = "total_weight_kg"
)

// Upper bounds for a single line. They keep unit price times amount well
// inside int64.
const (
	MaxQuantity     = 10000
	MaxLineWeightKg = 1000.0
)

// Price totals an order's line items against the catalog. It never fails:
// problems are reported per field in ValidationErrors and the offending line
// contributes a zero subtotal, so callers always get a complete result.
func Price(items []domain.OrderLineItem, totalWeightKg *float64, catalog []domain.CatalogItem) domain.OrderPricingResult {
	byID := make(map[string]domain.CatalogItem, len(catalog))
	for _, entry := range catalog {
		if entry.ID == "" {
			continue
		}
		byID[entry.ID] = entry
	}

	errs := make(map[string]string)
	if len(items) == 0 {
		errs[FieldItems] = "at least one item is required"
	}

	result := domain.OrderPricingResult{
		PerItemSubtotals: make([]domain.LineSubtotal, 0, len(items)),
	}

	needsWeight := false
	for i, item := range items {
		subtotal, perKg := priceLine(i, item, byID, errs)
		if perKg {
			needsWeight = true
		}
		validateDetails(i, item.Details, errs)

		result.PerItemSubtotals = append(result.PerItemSubtotals, domain.LineSubtotal{
			LineItemIndex: i,
			Subtotal:      subtotal,
		})
		result.LaundrySubtotal += subtotal
	}

	result.TotalWeightKg = resolveTotalWeight(totalWeightKg, needsWeight, errs)
	result.IsValid = len(errs) == 0
	result.ValidationErrors = errs
	return result
}

// priceLine returns the line subtotal and whether the line resolved to a
// per-kilogram catalog entry.
func priceLine(index int, item domain.OrderLineItem, catalog map[string]domain.CatalogItem, errs map[string]string) (int64, bool) {
	entry, ok := catalog[item.CatalogItemID]
	if item.CatalogItemID == "" || !ok {
		errs[itemField(index, "catalog_item_id")] = "select a laundry item"
		return 0, false
	}

	switch entry.PricingMode {
	case domain.PricingPerPiece:
		if item.Quantity < 1 {
			errs[itemField(index, "quantity")] = "quantity must be a positive whole number"
			return 0, false
		}
		if item.Quantity > MaxQuantity {
			errs[itemField(index, "quantity")] = fmt.Sprintf("quantity must not exceed %d", MaxQuantity)
			return 0, false
		}
		return entry.UnitPrice * int64(item.Quantity), false
	case domain.PricingPerKg:
		if !(item.WeightKg > 0) {
			errs[itemField(index, "weight_kg")] = "weight must be greater than 0"
			return 0, true
		}
		if item.WeightKg > MaxLineWeightKg {
			errs[itemField(index, "weight_kg")] = fmt.Sprintf("weight must not exceed %g kg", MaxLineWeightKg)
			return 0, true
		}
		subtotal := decimal.NewFromInt(entry.UnitPrice).Mul(decimal.NewFromFloat(item.WeightKg))
		return subtotal.Round(0).IntPart(), true
	default:
		errs[itemField(index, "catalog_item_id")] = fmt.Sprintf("unsupported pricing mode %q", entry.PricingMode)
		return 0, false
	}
}

func validateDetails(index int, details []domain.LineItemDetail, errs map[string]string) {
	for j, detail := range details {
		prefix := fmt.Sprintf("%s.details.%d", itemField(index, ""), j)
		if detail.Name == "" {
			errs[prefix+".name"] = "name is required"
		}
		if detail.Qty < 1 {
			errs[prefix+".qty"] = "qty must be a positive whole number"
		}
	}
}

func resolveTotalWeight(given *float64, required bool, errs map[string]string) float64 {
	if !required {
		if given == nil || !(*given > 0) {
			return DefaultTotalWeightKg
		}
		return *given
	}

	switch {
	case given == nil:
		errs[FieldTotalWeightKg] = "total weight is required for per-kilogram items"
		return 0
	case !(*given > 0):
		errs[FieldTotalWeightKg] = "total weight must be greater than 0"
		return 0
	}
	return *given
}

func itemField(index int, field string) string {
	if field == "" {
		return fmt.Sprintf("%s.%d", FieldItems, index)
	}
	return fmt.Sprintf("%s.%d.%s", FieldItems, index, field)
}
