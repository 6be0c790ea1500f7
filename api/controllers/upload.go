package controllers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/internal/individualcards"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/storage/gcs"
)

const (
	uploadFormField    = "file"
	uploadObjectPrefix = "uploads"
	defaultMaxUploadMB = 20
)

// UploadOptions wires the collaborators of the direct upload endpoint.
type UploadOptions struct {
	Storage         gcs.Uploader
	Bolao           bolao.Service
	IndividualCards individualcards.Service
	MaxUploadMB     int
}

type uploadResponse struct {
	FileName       string                             `json:"file_name"`
	FileURL        string                             `json:"file_url"`
	Size           int64                              `json:"size"`
	UploadType     enums.UploadType                   `json:"upload_type"`
	Upload         *bolao.CardUploadDTO               `json:"upload,omitempty"`
	IndividualCard *individualcards.IndividualCardDTO `json:"individual_card,omitempty"`
}

// UploadDirect streams a multipart file to object storage. With group_id and
// upload_type=group_cards the file is registered as the group's card sheet;
// with card_id and upload_type=individual_card it is attached to the card.
func UploadDirect(opts UploadOptions, logg *logger.Logger) http.HandlerFunc {
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	maxBytes := int64(maxMB) << 20

	return func(w http.ResponseWriter, r *http.Request) {
		if opts.Storage == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "object storage not configured"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d MB", maxMB))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		uploadType := enums.UploadTypeOther
		if raw := strings.TrimSpace(r.FormValue("upload_type")); raw != "" {
			parsed, err := enums.ParseUploadType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload_type"))
				return
			}
			uploadType = parsed
		}

		groupID, err := formUUID(r, "group_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cardID, err := formUUID(r, "card_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if uploadType == enums.UploadTypeGroupCards && groupID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "group_id required for group_cards uploads"))
			return
		}

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required"))
			return
		}
		defer file.Close()

		fileName := path.Base(strings.TrimSpace(header.Filename))
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		object, err := opts.Storage.Upload(r.Context(), gcs.ObjectName(uploadObjectPrefix+"/"+string(uploadType), fileName), contentType, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload file"))
			return
		}

		resp := uploadResponse{
			FileName:   fileName,
			FileURL:    object.URL,
			Size:       object.Size,
			UploadType: uploadType,
		}

		if opts.Bolao != nil && (groupID != nil || uploadType == enums.UploadTypeGroupCards) {
			upload, err := opts.Bolao.RegisterUpload(r.Context(), bolao.RegisterUploadInput{
				GroupID:    groupID,
				FileName:   fileName,
				FileURL:    object.URL,
				UploadType: uploadType,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.Upload = upload
		}

		if cardID != nil && uploadType == enums.UploadTypeIndividualCard && opts.IndividualCards != nil {
			card, err := opts.IndividualCards.Update(r.Context(), *cardID, individualcards.UpdateInput{
				FileName: &fileName,
				FileURL:  &object.URL,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.IndividualCard = card
		}

		responses.WriteCreated(w, resp)
	}
}

func formUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).WithDetail("field", key)
	}
	return &id, nil
}
