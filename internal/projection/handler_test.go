package projection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
	"github.com/uprl-lab/uprl/internal/core/storage/memory"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svc := NewService(store)

	r := gin.New()
	svc.RegisterRoutes(r)
	return r, store
}

func doGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlePayables_ReturnsInstances(t *testing.T) {
	r, store := newTestRouter(t)
	require.NoError(t, store.AppendSupplierLifecycle(context.Background(),
		supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusConfirmed, 300000)))

	w := doGet(t, r, "/v1/orders/ord-1/payables")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OrderID   string            `json:"order_id"`
		Instances []PayableInstance `json:"instances"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ord-1", body.OrderID)
	require.Len(t, body.Instances, 1)
	require.True(t, body.Instances[0].TotalPayable.Equal(decimal.NewFromInt(300000)))
}

func TestHandlePayables_UnknownOrderReturnsEmptyList(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doGet(t, r, "/v1/orders/ord-none/payables")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Instances []PayableInstance `json:"instances"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Instances)
	require.Empty(t, body.Instances)
}

func TestHandlePaymentState_StatusMapping(t *testing.T) {
	r, store := newTestRouter(t)
	require.NoError(t, store.AppendPaymentEntry(context.Background(), &v1.PaymentTimelineEntry{
		EventID: "pay-1", OrderID: "ord-1", Status: "CAPTURED", Currency: "IDR",
	}))

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"existing order returns 200", "/v1/orders/ord-1/payment", http.StatusOK},
		{"missing payment returns 404", "/v1/orders/ord-other/payment", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doGet(t, r, tc.path)
			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestHandleComponentLineage(t *testing.T) {
	r, store := newTestRouter(t)
	require.NoError(t, store.AppendPricingSnapshot(context.Background(), &v1.PricingSnapshotFact{
		OrderID: "ord-1", SnapshotID: "snap-1",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "i1", Amount: decimal.NewFromInt(100000), Currency: "IDR"},
		},
	}))

	w := doGet(t, r, "/v1/components/fare/lineage")
	require.Equal(t, http.StatusOK, w.Code)

	var lineage ComponentLineage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lineage))
	require.Equal(t, "fare", lineage.SemanticID)
	require.True(t, lineage.NetAmount.Equal(decimal.NewFromInt(100000)))
}

func TestHandleDeadLetters_LimitValidation(t *testing.T) {
	r, store := newTestRouter(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordRejected(context.Background(), &v1.DeadLetterRecord{
			RecordID: string(rune('a' + i)), RawEvent: "{}",
			ErrorType: "invalid_json", ErrorMessage: "bad payload",
		}))
	}

	w := doGet(t, r, "/v1/deadletters?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Records []v1.DeadLetterRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Records, 2)

	w = doGet(t, r, "/v1/deadletters?limit=nope")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleOrderView(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusConfirmed, 80000)))
	require.NoError(t, store.AppendPaymentEntry(ctx, &v1.PaymentTimelineEntry{
		EventID: "pay-1", OrderID: "ord-1", Status: "CAPTURED", Currency: "IDR",
	}))

	w := doGet(t, r, "/v1/orders/ord-1")
	require.Equal(t, http.StatusOK, w.Code)

	var view OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Equal(t, "ord-1", view.OrderID)
	require.NotNil(t, view.PaymentState)
	require.Len(t, view.Payables, 1)
}
