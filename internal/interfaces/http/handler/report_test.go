package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupReportHandler() (*testCaller, *MockReportService) {
	svc := new(MockReportService)
	h := NewReportHandler(svc)
	tc := newTestCaller()
	tc.router.GET("/stats", h.Stats)
	tc.router.GET("/activity", h.Activity)
	return tc, svc
}

func TestReportHandler_Stats(t *testing.T) {
	t.Run("period is passed through", func(t *testing.T) {
		tc, svc := setupReportHandler()
		svc.On("Stats", mock.Anything, tc.userID, "6m").Return(&reportapp.StatsResponse{
			Period: "6m",
			Chart:  []reportapp.ChartPoint{{Month: "2024-05", Count: 1, Total: decimal.NewFromInt(200)}},
			Summary: reportapp.SummaryResponse{
				TotalInvoices: 1,
				TotalAmount:   decimal.NewFromInt(200),
			},
		}, nil)

		w := tc.do(http.MethodGet, "/stats?period=6m", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"month":"2024-05"`)
		svc.AssertExpectations(t)
	})

	t.Run("no invoices", func(t *testing.T) {
		tc, svc := setupReportHandler()
		svc.On("Stats", mock.Anything, tc.userID, "").Return(&reportapp.StatsResponse{
			Period:  "1m",
			Chart:   []reportapp.ChartPoint{},
			Summary: reportapp.SummaryResponse{TotalAmount: decimal.Zero},
		}, nil)

		w := tc.do(http.MethodGet, "/stats", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t,
			`{"success":true,"data":{"period":"1m","chart":[],"summary":{"total_invoices":0,"total_amount":"0"}}}`,
			w.Body.String())
	})

	t.Run("storage failure", func(t *testing.T) {
		tc, svc := setupReportHandler()
		svc.On("Stats", mock.Anything, tc.userID, "1y").Return(nil, errors.New("pq: canceling statement"))

		w := tc.do(http.MethodGet, "/stats?period=1y", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, decodeResponse(t, w).Error.Code)
	})
}

func TestReportHandler_Activity(t *testing.T) {
	tc, svc := setupReportHandler()
	total := decimal.NewFromInt(200)
	svc.On("Activity", mock.Anything, tc.userID).Return([]reportapp.ActivityResponse{
		{Type: "invoice", ID: uuid.New(), Title: "INV 0000007", Subtitle: "Acme", Total: &total, Date: time.Now()},
		{Type: "client", ID: uuid.New(), Title: "Acme", Date: time.Now().Add(-time.Hour)},
	}, nil)

	w := tc.do(http.MethodGet, "/activity", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w).Data.([]any), 2)
}
