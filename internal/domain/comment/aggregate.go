package comment

import "github.com/shopspring/decimal"

// Aggregate computes a product's derived rating fields from its full comment
// set: the mean rating rounded half-up to two decimals, and the count.
// An empty set yields (0, 0). Pure and therefore idempotent: the same comment
// set always produces the same aggregate.
func Aggregate(comments []Comment) (decimal.Decimal, int) {
	if len(comments) == 0 {
		return decimal.Zero, 0
	}

	sum := int64(0)
	for _, c := range comments {
		sum += int64(c.Rating)
	}

	mean := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(comments))))
	return mean.Round(2), len(comments)
}
