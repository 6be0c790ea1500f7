package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/internal/individualcards"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/storage/gcs"
)

type fakeUploader struct {
	objects map[string][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, object, contentType string, body io.Reader) (*gcs.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[object] = data
	return &gcs.Object{Bucket: "cards", Name: object, URL: "https://storage.test/cards/" + object, Size: int64(len(data))}, nil
}

type stubBolaoService struct {
	bolao.Service
	registered []bolao.RegisterUploadInput
}

func (s *stubBolaoService) RegisterUpload(ctx context.Context, input bolao.RegisterUploadInput) (*bolao.CardUploadDTO, error) {
	s.registered = append(s.registered, input)
	return &bolao.CardUploadDTO{ID: uuid.New(), GroupID: input.GroupID, FileName: input.FileName, FileURL: input.FileURL, UploadType: input.UploadType}, nil
}

type stubCardsService struct {
	individualcards.Service
	updated map[uuid.UUID]individualcards.UpdateInput
}

func (s *stubCardsService) Update(ctx context.Context, id uuid.UUID, input individualcards.UpdateInput) (*individualcards.IndividualCardDTO, error) {
	if s.updated == nil {
		s.updated = map[uuid.UUID]individualcards.UpdateInput{}
	}
	s.updated[id] = input
	return &individualcards.IndividualCardDTO{ID: id, FileName: input.FileName, FileURL: input.FileURL}, nil
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/direct", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadDirectRegistersGroupCards(t *testing.T) {
	storage := &fakeUploader{}
	bolaoSvc := &stubBolaoService{}
	groupID := uuid.New()

	req := multipartRequest(t, map[string]string{
		"group_id":    groupID.String(),
		"upload_type": "group_cards",
	}, "grupo-1.pdf", []byte("%PDF-1.4"))
	resp := httptest.NewRecorder()
	UploadDirect(UploadOptions{Storage: storage, Bolao: bolaoSvc}, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Len(t, storage.objects, 1)
	for name := range storage.objects {
		require.True(t, strings.HasPrefix(name, "uploads/group_cards/"))
		require.True(t, strings.HasSuffix(name, ".pdf"))
	}
	require.Len(t, bolaoSvc.registered, 1)
	require.Equal(t, groupID, *bolaoSvc.registered[0].GroupID)
	require.Equal(t, enums.UploadTypeGroupCards, bolaoSvc.registered[0].UploadType)
	require.Equal(t, "grupo-1.pdf", bolaoSvc.registered[0].FileName)
}

func TestUploadDirectGroupCardsRequiresGroup(t *testing.T) {
	storage := &fakeUploader{}
	req := multipartRequest(t, map[string]string{"upload_type": "group_cards"}, "a.pdf", []byte("x"))
	resp := httptest.NewRecorder()
	UploadDirect(UploadOptions{Storage: storage, Bolao: &stubBolaoService{}}, testLogger())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, storage.objects)
}

func TestUploadDirectAttachesIndividualCard(t *testing.T) {
	cards := &stubCardsService{}
	cardID := uuid.New()
	req := multipartRequest(t, map[string]string{
		"card_id":     cardID.String(),
		"upload_type": "individual_card",
	}, "cartela.png", []byte("png"))
	resp := httptest.NewRecorder()
	UploadDirect(UploadOptions{Storage: &fakeUploader{}, Bolao: &stubBolaoService{}, IndividualCards: cards}, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	input, ok := cards.updated[cardID]
	require.True(t, ok)
	require.Equal(t, "cartela.png", *input.FileName)
	require.Contains(t, *input.FileURL, "https://storage.test/cards/uploads/individual_card/")
}

func TestUploadDirectWithoutStorage(t *testing.T) {
	req := multipartRequest(t, nil, "a.pdf", []byte("x"))
	resp := httptest.NewRecorder()
	UploadDirect(UploadOptions{}, testLogger())(resp, req)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestUploadDirectMissingFile(t *testing.T) {
	req := multipartRequest(t, map[string]string{"upload_type": "other"}, "", nil)
	resp := httptest.NewRecorder()
	UploadDirect(UploadOptions{Storage: &fakeUploader{}}, testLogger())(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadDirectRejectsOversizedFile(t *testing.T) {
	req := multipartRequest(t, nil, "big.pdf", bytes.Repeat([]byte("a"), 2<<20))
	resp := httptest.NewRecorder()
	UploadDirect(UploadOptions{Storage: &fakeUploader{}, MaxUploadMB: 1}, testLogger())(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
