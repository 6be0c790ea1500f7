package controllers

import (
	"net/http"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/api/validators"
	"github.com/cartelabolao/cartela-admin/internal/sales"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

type paymentStatusRequest struct {
	PaymentStatus enums.PaymentStatus `json:"payment_status" validate:"required"`
}

func parseSalesListParams(r *http.Request) (sales.ListParams, error) {
	var (
		params sales.ListParams
		err    error
	)
	if params.Limit, err = validators.ParseLimit(r); err != nil {
		return params, err
	}
	if params.EditionID, err = queryUUID(r, "edition_id"); err != nil {
		return params, err
	}
	if params.SellerID, err = queryUUID(r, "seller_id"); err != nil {
		return params, err
	}
	if params.SaleType, err = queryEnum(r, "sale_type", enums.ParseSaleType); err != nil {
		return params, err
	}
	if params.PaymentStatus, err = queryEnum(r, "payment_status", enums.ParsePaymentStatus); err != nil {
		return params, err
	}
	if params.Origin, err = queryEnum(r, "sale_origin", enums.ParseSaleOrigin); err != nil {
		return params, err
	}
	if params.From, err = queryTime(r, "from"); err != nil {
		return params, err
	}
	if params.To, err = queryTime(r, "to"); err != nil {
		return params, err
	}
	params.Cursor = queryCursor(r)
	return params, nil
}

// ListSales filters by edition, type, payment status, origin, seller and created_at range.
func ListSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		params, err := parseSalesListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		id, err := pathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func CreateSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		var body sales.CreateSaleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, sale)
	}
}

func UpdateSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		id, err := pathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sales.UpdateSaleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

// UpdateSalePaymentStatus flips pending/paid; a bolão sale marked paid is
// seated right after the commit.
func UpdateSalePaymentStatus(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		id, err := pathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.UpdatePaymentStatus(r.Context(), id, body.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func DeleteSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		id, err := pathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// PublicCreateSale is the unauthenticated checkout used by the sales page.
func PublicCreateSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("sales"))
			return
		}

		var body sales.PublicSaleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.PublicCheckout(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, sale)
	}
}
