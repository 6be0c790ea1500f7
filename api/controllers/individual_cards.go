package controllers

import (
	"net/http"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/api/validators"
	"github.com/cartelabolao/cartela-admin/internal/individualcards"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

func ListIndividualCards(svc individualcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("individual cards"))
			return
		}

		limit, err := validators.ParseLimit(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		editionID, err := queryUUID(r, "edition_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sent, err := queryBool(r, "sent")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), individualcards.ListParams{
			EditionID: editionID,
			Sent:      sent,
			Limit:     limit,
			Cursor:    queryCursor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetIndividualCard(svc individualcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("individual cards"))
			return
		}

		id, err := pathUUID(r, "cardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}

func UpdateIndividualCard(svc individualcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("individual cards"))
			return
		}

		id, err := pathUUID(r, "cardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body individualcards.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}

// SendIndividualCardWhatsApp pushes the attached card file to the buyer.
func SendIndividualCardWhatsApp(svc individualcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("individual cards"))
			return
		}

		id, err := pathUUID(r, "cardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.SendWhatsApp(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}
