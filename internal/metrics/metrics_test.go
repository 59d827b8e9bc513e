package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFunds(t *testing.T) {
	before := testutil.ToFloat64(FundsMoved.WithLabelValues("refunded"))
	RecordFunds("refunded", 120)
	RecordFunds("refunded", 0)
	RecordFunds("refunded", -5)
	if got := testutil.ToFloat64(FundsMoved.WithLabelValues("refunded")) - before; got != 120 {
		t.Fatalf("refunded delta = %v, want 120", got)
	}
}

func TestRecordSettled(t *testing.T) {
	before := testutil.ToFloat64(CampaignsSettled.WithLabelValues("failed"))
	RecordSettled("failed")
	if got := testutil.ToFloat64(CampaignsSettled.WithLabelValues("failed")) - before; got != 1 {
		t.Fatalf("settled delta = %v, want 1", got)
	}
}

func TestRecordOperationDuration(t *testing.T) {
	RecordOperationDuration("contribute", "success", 0.002)
	if n := testutil.CollectAndCount(LedgerOperationDuration, "ledger_operation_duration_seconds"); n == 0 {
		t.Fatal("no histogram series collected")
	}
}
