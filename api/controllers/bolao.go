package controllers

import (
	"net/http"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/api/validators"
	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

// ListBolaoGroups filters by ?edition_id= and ?state= (open, complete, cards_ready, sent).
func ListBolaoGroups(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		editionID, err := queryUUID(r, "edition_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := queryEnum(r, "state", enums.ParseGroupState)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, err := svc.ListGroups(r.Context(), bolao.ListGroupsParams{EditionID: editionID, State: state})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}

func GetBolaoGroup(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		id, err := pathUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.GetGroup(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

func CreateBolaoGroup(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		var body bolao.CreateGroupInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateGroup(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, group)
	}
}

// ResetBolaoGroupSent clears cards_sent so the next pass resends the group.
func ResetBolaoGroupSent(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		id, err := pathUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.ResetSent(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

func ListBolaoGroupUploads(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		id, err := pathUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uploads, err := svc.ListUploads(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, uploads)
	}
}

// ProcessPendingBolaoSales is the manual "process pending sales" button.
func ProcessPendingBolaoSales(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		summary, err := svc.ProcessPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if summaryErr := summary.Err(); summaryErr != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "failed", summary.Failed), "bolao.process_pending.partial")
		}
		responses.WriteSuccess(w, summary)
	}
}

// SendReadyBolaoGroups is the manual "send ready groups" trigger.
func SendReadyBolaoGroups(svc bolao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bolao"))
			return
		}

		summary, err := svc.SendReady(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if summaryErr := summary.Err(); summaryErr != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "failed", summary.Failed), "bolao.send_ready.partial")
		}
		responses.WriteSuccess(w, summary)
	}
}
