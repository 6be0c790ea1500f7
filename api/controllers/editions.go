package controllers

import (
	"net/http"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/api/validators"
	"github.com/cartelabolao/cartela-admin/internal/editions"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

type salesPausedRequest struct {
	Paused *bool `json:"paused" validate:"required"`
}

// ListEditions returns editions, optionally filtered by ?status=.
func ListEditions(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		status, err := queryEnum(r, "status", enums.ParseEditionStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		id, err := pathUUID(r, "editionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		edition, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, edition)
	}
}

// GetActiveEdition answers with data=null when no edition is active.
func GetActiveEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		edition, err := svc.GetActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, edition)
	}
}

func CreateEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		var body editions.CreateEditionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		edition, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, edition)
	}
}

func UpdateEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		id, err := pathUUID(r, "editionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body editions.UpdateEditionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		edition, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, edition)
	}
}

// ActivateEdition makes the edition the single active one.
func ActivateEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return editionTransition(svc, logg, func(r *http.Request) (*editions.EditionDTO, error) {
		id, err := pathUUID(r, "editionId")
		if err != nil {
			return nil, err
		}
		return svc.Activate(r.Context(), id)
	})
}

func FinalizeEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return editionTransition(svc, logg, func(r *http.Request) (*editions.EditionDTO, error) {
		id, err := pathUUID(r, "editionId")
		if err != nil {
			return nil, err
		}
		return svc.Finalize(r.Context(), id)
	})
}

// SetEditionSalesPaused pauses or resumes public sales for an edition.
func SetEditionSalesPaused(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return editionTransition(svc, logg, func(r *http.Request) (*editions.EditionDTO, error) {
		id, err := pathUUID(r, "editionId")
		if err != nil {
			return nil, err
		}
		var body salesPausedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetSalesPaused(r.Context(), id, *body.Paused)
	})
}

func DeleteEdition(svc editions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		id, err := pathUUID(r, "editionId")
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

func editionTransition(svc editions.Service, logg *logger.Logger, run func(r *http.Request) (*editions.EditionDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("editions"))
			return
		}

		edition, err := run(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, edition)
	}
}
