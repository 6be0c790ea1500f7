package enums

import "fmt"

// SaleType distinguishes the two products on sale.
type SaleType string

const (
	SaleTypeIndividualCard SaleType = "individual_card"
	SaleTypeBolaoQuota     SaleType = "bolao_quota"
)

var validSaleTypes = []SaleType{
	SaleTypeIndividualCard,
	SaleTypeBolaoQuota,
}

func (t SaleType) String() string {
	return string(t)
}

func (t SaleType) IsValid() bool {
	for _, candidate := range validSaleTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseSaleType(value string) (SaleType, error) {
	for _, candidate := range validSaleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale type %q", value)
}
