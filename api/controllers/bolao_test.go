package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
)

type stubGroupsService struct {
	stubBolaoService
	params  bolao.ListGroupsParams
	process bolao.ProcessSummary
}

func (s *stubGroupsService) ListGroups(ctx context.Context, params bolao.ListGroupsParams) ([]bolao.GroupDTO, error) {
	s.params = params
	return []bolao.GroupDTO{}, nil
}

func (s *stubGroupsService) ProcessPending(ctx context.Context) (bolao.ProcessSummary, error) {
	return s.process, nil
}

func TestListBolaoGroupsFilters(t *testing.T) {
	svc := &stubGroupsService{}
	editionID := uuid.New()

	resp := httptest.NewRecorder()
	ListBolaoGroups(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/bolao/groups?state=cards_ready&edition_id="+editionID.String(), nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, editionID, *svc.params.EditionID)
	require.Equal(t, enums.GroupStateCardsReady, *svc.params.State)
}

func TestProcessPendingReturnsSummary(t *testing.T) {
	svc := &stubGroupsService{process: bolao.ProcessSummary{Pending: 3, Allocated: 3, GroupsCompleted: 1}}

	resp := httptest.NewRecorder()
	ProcessPendingBolaoSales(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/bolao/process-pending", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"allocated":3`)
	require.Contains(t, resp.Body.String(), `"groups_completed":1`)
}
