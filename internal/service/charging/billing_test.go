package charging

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestRate_Segments(t *testing.T) {
	tariff := DefaultTariff()

	cases := []struct {
		hour int
		want float64
	}{
		{0, 0.40},
		{6, 0.40},
		{7, 0.70},
		{9, 0.70},
		{10, 1.00},
		{14, 1.00},
		{15, 0.70},
		{17, 0.70},
		{18, 1.00},
		{20, 1.00},
		{21, 0.70},
		{22, 0.70},
		{23, 0.40},
	}
	for _, tc := range cases {
		if got := tariff.Rate(at(tc.hour, 0)); got != tc.want {
			t.Errorf("rate at %02d:00: expected %.2f, got %.2f", tc.hour, tc.want, got)
		}
	}
}

func TestComputeCost_SingleSegment(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	// 11:00 to 12:00 sits entirely inside the peak window.
	chargeFee, serviceFee, totalFee := svc.ComputeCost(10, at(11, 0), at(12, 0))

	if chargeFee != 10.00 {
		t.Errorf("expected charge fee 10.00, got %.2f", chargeFee)
	}
	if serviceFee != 8.00 {
		t.Errorf("expected service fee 8.00, got %.2f", serviceFee)
	}
	if totalFee != 18.00 {
		t.Errorf("expected total 18.00, got %.2f", totalFee)
	}
}

func TestComputeCost_ValleyOvernight(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	// 23:30 to 00:30 crosses midnight but stays in the valley rate.
	start := at(23, 30)
	end := start.Add(time.Hour)
	chargeFee, _, _ := svc.ComputeCost(10, start, end)

	if chargeFee != 4.00 {
		t.Errorf("expected charge fee 4.00, got %.2f", chargeFee)
	}
}

func TestComputeCost_SpansBoundary(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	// 09:30 to 10:30: half the energy at normal, half at peak.
	chargeFee, serviceFee, totalFee := svc.ComputeCost(1, at(9, 30), at(10, 30))

	if chargeFee != 0.85 {
		t.Errorf("expected charge fee 0.85, got %.2f", chargeFee)
	}
	if serviceFee != 0.80 {
		t.Errorf("expected service fee 0.80, got %.2f", serviceFee)
	}
	if totalFee != 1.65 {
		t.Errorf("expected total 1.65, got %.2f", totalFee)
	}
}

func TestComputeCost_PeakIntoNormal(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	// One hour at 10 kW from 14:30: 5 kWh at peak, 5 kWh at normal.
	chargeFee, serviceFee, totalFee := svc.ComputeCost(10, at(14, 30), at(15, 30))

	if chargeFee != 8.50 {
		t.Errorf("expected charge fee 8.50, got %.2f", chargeFee)
	}
	if serviceFee != 8.00 {
		t.Errorf("expected service fee 8.00, got %.2f", serviceFee)
	}
	if totalFee != 16.50 {
		t.Errorf("expected total 16.50, got %.2f", totalFee)
	}
}

func TestComputeCost_ZeroInput(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	if c, s, total := svc.ComputeCost(0, at(9, 0), at(10, 0)); c != 0 || s != 0 || total != 0 {
		t.Errorf("expected zero fees for zero energy, got %.2f %.2f %.2f", c, s, total)
	}
	if c, s, total := svc.ComputeCost(10, at(9, 0), at(9, 0)); c != 0 || s != 0 || total != 0 {
		t.Errorf("expected zero fees for zero duration, got %.2f %.2f %.2f", c, s, total)
	}
}

func TestComputeCost_MoreEnergyCostsMore(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	start, end := at(8, 0), at(12, 0)
	_, _, small := svc.ComputeCost(5, start, end)
	_, _, large := svc.ComputeCost(20, start, end)

	if large <= small {
		t.Errorf("expected cost to grow with energy: %.2f vs %.2f", small, large)
	}
}

func TestComputeCost_FeeGrowsWithEndTime(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	// A charge begun in the valley window keeps crossing into dearer
	// segments (valley 05-07, normal 07-10, peak from 10), so stretching
	// the same delivery over a later end never cheapens the bill.
	start := at(5, 0)
	prev := 0.0
	for h := 6; h <= 15; h++ {
		_, _, total := svc.ComputeCost(30, start, at(h, 0))
		if total < prev {
			t.Errorf("fee dropped from %.2f to %.2f when ending at %02d:00", prev, total, h)
		}
		prev = total
	}

	// Spot-check the sweep endpoints against hand-computed values.
	if _, _, total := svc.ComputeCost(30, start, at(6, 0)); total != 36.00 {
		t.Errorf("expected 36.00 for an all-valley hour, got %.2f", total)
	}
	if _, _, total := svc.ComputeCost(30, start, at(15, 0)); total != 47.70 {
		t.Errorf("expected 47.70 across valley, normal and peak, got %.2f", total)
	}
}

func TestComputeCost_Rounded(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	chargeFee, serviceFee, totalFee := svc.ComputeCost(3.333, at(9, 10), at(10, 47))
	for _, v := range []float64{chargeFee, serviceFee, totalFee} {
		if math.Round(v*100)/100 != v {
			t.Errorf("expected two-decimal fee, got %v", v)
		}
	}
	if totalFee != math.Round((chargeFee+serviceFee)*100)/100 {
		t.Errorf("total %.2f does not equal charge %.2f plus service %.2f", totalFee, chargeFee, serviceFee)
	}
}

func TestNewBill_CapsAtRequestedAmount(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	session := &domain.ChargingSession{
		ID:        "sess-1",
		CarID:     "CAR-01",
		PileID:    "F01",
		StartTime: at(11, 0),
		AmountKWh: 10,
	}
	pile := &domain.ChargingPile{ID: "F01", Type: domain.ChargeModeFast, PowerKW: 30}

	// Two hours at 30 kW would meter 60 kWh; the request caps it at 10.
	bill := svc.NewBill("bill-1", session, pile, at(13, 0))

	if bill.DeliveredKWh != 10 {
		t.Errorf("expected delivered 10.00, got %.2f", bill.DeliveredKWh)
	}
	if bill.Mode != domain.ChargeModeFast {
		t.Errorf("expected FAST bill, got %s", bill.Mode)
	}
	if bill.ChargeFee != 10.00 || bill.ServiceFee != 8.00 || bill.TotalFee != 18.00 {
		t.Errorf("unexpected fees: %.2f %.2f %.2f", bill.ChargeFee, bill.ServiceFee, bill.TotalFee)
	}
}

func TestNewBill_PartialDelivery(t *testing.T) {
	svc := NewBillingService(nil, newTestLogger())

	session := &domain.ChargingSession{
		ID:        "sess-2",
		CarID:     "CAR-02",
		PileID:    "T01",
		StartTime: at(2, 0),
		AmountKWh: 30,
	}
	pile := &domain.ChargingPile{ID: "T01", Type: domain.ChargeModeTrickle, PowerKW: 10}

	// One valley hour at 10 kW delivers 10 of the requested 30 kWh.
	bill := svc.NewBill("bill-2", session, pile, at(3, 0))

	if bill.DeliveredKWh != 10 {
		t.Errorf("expected delivered 10.00, got %.2f", bill.DeliveredKWh)
	}
	if bill.ChargeFee != 4.00 {
		t.Errorf("expected charge fee 4.00, got %.2f", bill.ChargeFee)
	}
	if bill.TotalFee != 12.00 {
		t.Errorf("expected total 12.00, got %.2f", bill.TotalFee)
	}
}
