package order

import (
	"github.com/shopspring/decimal"

	"github.com/hallertau/storefront/internal/domain/product"
)

// BuildLines materializes order lines from the requested items and the
// product rows they resolve to, snapshotting each product's current name and
// unit price and summing the total. The total is rounded half-up to two
// decimal places.
//
// It is called by store implementations with rows read under lock, so the
// snapshots and the stock decrement belong to the same atomic unit.
func BuildLines(items []Item, products map[string]product.Product) ([]Line, decimal.Decimal, error) {
	lines := make([]Line, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, decimal.Zero, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if p.Stock < item.Quantity {
			return nil, decimal.Zero, &InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: p.Stock,
			}
		}

		line := Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   p.Price,
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	return lines, total.Round(2), nil
}
