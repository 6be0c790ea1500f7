package types

import (
	"encoding/json"
	"fmt"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
)

// Seller is the tagged variant Direct | Promoter(id) | Reseller(id).
// The zero value is Direct.
type Seller struct {
	origin enums.SaleOrigin
	id     uuid.UUID
}

func DirectSeller() Seller {
	return Seller{origin: enums.SaleOriginDirect}
}

func PromoterSeller(id uuid.UUID) Seller {
	return Seller{origin: enums.SaleOriginPromoter, id: id}
}

func ResellerSeller(id uuid.UUID) Seller {
	return Seller{origin: enums.SaleOriginReseller, id: id}
}

// Origin returns the sale origin encoded by the variant.
func (s Seller) Origin() enums.SaleOrigin {
	if s.origin == "" {
		return enums.SaleOriginDirect
	}
	return s.origin
}

func (s Seller) IsDirect() bool {
	return s.Origin() == enums.SaleOriginDirect
}

// ID returns the seller reference for promoter and reseller variants.
func (s Seller) ID() (uuid.UUID, bool) {
	if s.IsDirect() {
		return uuid.Nil, false
	}
	return s.id, true
}

// Kind returns the seller kind a non-direct variant must reference.
func (s Seller) Kind() (enums.SellerKind, bool) {
	switch s.Origin() {
	case enums.SaleOriginPromoter:
		return enums.SellerKindPromoter, true
	case enums.SaleOriginReseller:
		return enums.SellerKindReseller, true
	}
	return "", false
}

// Columns flattens the variant into the (sale_origin, seller_id) pair stored on sales.
func (s Seller) Columns() (enums.SaleOrigin, *uuid.UUID) {
	id, ok := s.ID()
	if !ok {
		return enums.SaleOriginDirect, nil
	}
	return s.Origin(), &id
}

// SellerFromColumns rebuilds the variant, rejecting combinations that break exclusivity.
func SellerFromColumns(origin enums.SaleOrigin, id *uuid.UUID) (Seller, error) {
	if origin == "" {
		origin = enums.SaleOriginDirect
	}
	switch origin {
	case enums.SaleOriginDirect:
		if id != nil && *id != uuid.Nil {
			return Seller{}, fmt.Errorf("direct sale cannot reference seller %s", id)
		}
		return DirectSeller(), nil
	case enums.SaleOriginPromoter, enums.SaleOriginReseller:
		if id == nil || *id == uuid.Nil {
			return Seller{}, fmt.Errorf("%s sale requires a seller id", origin)
		}
		return Seller{origin: origin, id: *id}, nil
	}
	return Seller{}, fmt.Errorf("invalid sale origin %q", origin)
}

type sellerJSON struct {
	Origin enums.SaleOrigin `json:"origin"`
	ID     *uuid.UUID       `json:"id,omitempty"`
}

func (s Seller) MarshalJSON() ([]byte, error) {
	origin, id := s.Columns()
	return json.Marshal(sellerJSON{Origin: origin, ID: id})
}

func (s *Seller) UnmarshalJSON(data []byte) error {
	var raw sellerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := SellerFromColumns(raw.Origin, raw.ID)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
