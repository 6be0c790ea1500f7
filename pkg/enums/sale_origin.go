package enums

import "fmt"

// SaleOrigin records who closed a sale. Values match the dashboard vocabulary.
type SaleOrigin string

const (
	SaleOriginDirect   SaleOrigin = "direct"
	SaleOriginPromoter SaleOrigin = "promotora"
	SaleOriginReseller SaleOrigin = "revendedor"
)

var validSaleOrigins = []SaleOrigin{
	SaleOriginDirect,
	SaleOriginPromoter,
	SaleOriginReseller,
}

func (o SaleOrigin) String() string {
	return string(o)
}

func (o SaleOrigin) IsValid() bool {
	for _, candidate := range validSaleOrigins {
		if candidate == o {
			return true
		}
	}
	return false
}

func ParseSaleOrigin(value string) (SaleOrigin, error) {
	for _, candidate := range validSaleOrigins {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale origin %q", value)
}
