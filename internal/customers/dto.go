package customers

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/google/uuid"
)

type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	CPF       *string   `json:"cpf,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromModel(m *models.Customer) *CustomerDTO {
	if m == nil {
		return nil
	}
	return &CustomerDTO{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		CPF:       m.CPF,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// customerWire lists every key the dashboard has ever sent for a customer.
// name/phone are canonical; nome, contato and telefone are legacy spellings.
type customerWire struct {
	Name     *string `json:"name"`
	Nome     *string `json:"nome"`
	Phone    *string `json:"phone"`
	Contato  *string `json:"contato"`
	Telefone *string `json:"telefone"`
	Email    *string `json:"email"`
	CPF      *string `json:"cpf"`
	Active   *bool   `json:"active"`
	Ativo    *bool   `json:"ativo"`
}

func decodeWire(data []byte) (customerWire, error) {
	var wire customerWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return customerWire{}, err
	}
	return wire, nil
}

func (w customerWire) name() *string {
	return firstString(w.Name, w.Nome)
}

func (w customerWire) phone() *string {
	return firstString(w.Phone, w.Contato, w.Telefone)
}

func (w customerWire) active() *bool {
	if w.Active != nil {
		return w.Active
	}
	return w.Ativo
}

func firstString(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// CustomerInput is the canonical create payload.
type CustomerInput struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Phone string  `json:"phone" validate:"required,max=40"`
	Email *string `json:"email" validate:"omitempty,email"`
	CPF   *string `json:"cpf" validate:"omitempty,max=20"`
}

func (in *CustomerInput) UnmarshalJSON(data []byte) error {
	wire, err := decodeWire(data)
	if err != nil {
		return err
	}
	*in = CustomerInput{Email: wire.Email, CPF: wire.CPF}
	if v := wire.name(); v != nil {
		in.Name = *v
	}
	if v := wire.phone(); v != nil {
		in.Phone = *v
	}
	return nil
}

// UpdateCustomerInput patches a customer; nil fields stay untouched.
type UpdateCustomerInput struct {
	Name   *string `json:"name" validate:"omitempty,max=120"`
	Phone  *string `json:"phone" validate:"omitempty,max=40"`
	Email  *string `json:"email" validate:"omitempty,email"`
	CPF    *string `json:"cpf" validate:"omitempty,max=20"`
	Active *bool   `json:"active"`
}

func (in *UpdateCustomerInput) UnmarshalJSON(data []byte) error {
	wire, err := decodeWire(data)
	if err != nil {
		return err
	}
	*in = UpdateCustomerInput{
		Name:   wire.name(),
		Phone:  wire.phone(),
		Email:  wire.Email,
		CPF:    wire.CPF,
		Active: wire.active(),
	}
	return nil
}
