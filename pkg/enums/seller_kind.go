package enums

import "fmt"

// SellerKind separates promoters from resellers; both live in the sellers table.
type SellerKind string

const (
	SellerKindPromoter SellerKind = "promotora"
	SellerKindReseller SellerKind = "revendedor"
)

var validSellerKinds = []SellerKind{
	SellerKindPromoter,
	SellerKindReseller,
}

func (k SellerKind) String() string {
	return string(k)
}

func (k SellerKind) IsValid() bool {
	for _, candidate := range validSellerKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Origin maps the seller kind to the sale origin it produces.
func (k SellerKind) Origin() SaleOrigin {
	switch k {
	case SellerKindPromoter:
		return SaleOriginPromoter
	case SellerKindReseller:
		return SaleOriginReseller
	}
	return SaleOriginDirect
}

func ParseSellerKind(value string) (SellerKind, error) {
	for _, candidate := range validSellerKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller kind %q", value)
}
