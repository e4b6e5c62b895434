package cart

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Line binds a product snapshot to the requested quantity.
type Line struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Encode serializes lines into the persisted snapshot format.
func Encode(lines []Line) (string, error) {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a persisted snapshot. Any malformed or inconsistent content
// yields a PARSE_FAILURE error.
func Decode(blob string) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal([]byte(blob), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "decode cart snapshot")
	}
	seen := make(map[int64]struct{}, len(lines))
	for i, line := range lines {
		if line.Product == nil || line.Product.ProductID == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeParse, fmt.Sprintf("cart line %d has no product id", i))
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeParse, fmt.Sprintf("cart line %d has quantity %d", i, line.Quantity))
		}
		if _, dup := seen[line.Product.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeParse, fmt.Sprintf("cart line %d repeats product %d", i, line.Product.ProductID))
		}
		seen[line.Product.ProductID] = struct{}{}
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		out[i] = Line{Product: line.Product.Clone(), Quantity: line.Quantity}
	}
	return out
}
