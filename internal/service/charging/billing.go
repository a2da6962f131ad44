package charging

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
)

// Tariff holds the time-of-use rates. The day is partitioned by the
// boundaries {00,07,10,15,18,21,23}:00 into peak, normal and valley segments.
type Tariff struct {
	PeakRate         float64 // per kWh during [10,15) and [18,21)
	NormalRate       float64 // per kWh during [7,10), [15,18) and [21,23)
	ValleyRate       float64 // per kWh during [23,24) and [0,7)
	ServiceFeePerKWh float64 // flat, on every delivered kWh
}

func DefaultTariff() *Tariff {
	return &Tariff{
		PeakRate:         1.00,
		NormalRate:       0.70,
		ValleyRate:       0.40,
		ServiceFeePerKWh: 0.80,
	}
}

// segmentBoundaries are the hours at which the rate may change.
var segmentBoundaries = []int{0, 7, 10, 15, 18, 21, 23}

// Rate returns the per-kWh rate in effect at t.
func (t *Tariff) Rate(at time.Time) float64 {
	h := at.Hour()
	switch {
	case (h >= 10 && h < 15) || (h >= 18 && h < 21):
		return t.PeakRate
	case (h >= 7 && h < 10) || (h >= 15 && h < 18) || (h >= 21 && h < 23):
		return t.NormalRate
	default:
		return t.ValleyRate
	}
}

// nextBoundary returns the first rate boundary strictly after t, rolling to
// the next day's midnight when t is past 23:00.
func nextBoundary(t time.Time) time.Time {
	for _, h := range segmentBoundaries {
		if t.Hour() < h {
			return time.Date(t.Year(), t.Month(), t.Day(), h, 0, 0, 0, t.Location())
		}
	}
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

// BillingService computes itemized bills for ended sessions. Delivered energy
// is attributed to tariff segments proportionally to the time spent in each,
// matching the uniform-power metering model.
type BillingService struct {
	tariff *Tariff
	log    *zap.Logger
}

func NewBillingService(tariff *Tariff, log *zap.Logger) *BillingService {
	if tariff == nil {
		tariff = DefaultTariff()
	}
	return &BillingService{tariff: tariff, log: log}
}

// ComputeCost splits the charge across tariff segments and returns the
// charge fee, the service fee and the total, each rounded to two decimals.
func (s *BillingService) ComputeCost(deliveredKWh float64, start, end time.Time) (chargeFee, serviceFee, totalFee float64) {
	totalHours := end.Sub(start).Hours()
	if totalHours <= 0 || deliveredKWh <= 0 {
		return 0, 0, 0
	}

	var charge float64
	for cur := start; cur.Before(end); {
		boundary := nextBoundary(cur)
		segEnd := boundary
		if end.Before(boundary) {
			segEnd = end
		}
		segHours := segEnd.Sub(cur).Hours()
		segKWh := deliveredKWh * segHours / totalHours
		charge += segKWh * s.tariff.Rate(cur)
		cur = segEnd
	}

	chargeFee = round2(charge)
	serviceFee = round2(deliveredKWh * s.tariff.ServiceFeePerKWh)
	totalFee = round2(chargeFee + serviceFee)
	return chargeFee, serviceFee, totalFee
}

// NewBill materializes the bill for a session ending at endTime on the pile
// that served it.
func (s *BillingService) NewBill(billID string, session *domain.ChargingSession, pile *domain.ChargingPile, endTime time.Time) *domain.Bill {
	delivered := round2(session.DeliveredKWh(pile.PowerKW, endTime))
	chargeFee, serviceFee, totalFee := s.ComputeCost(delivered, session.StartTime, endTime)

	bill := &domain.Bill{
		ID:           billID,
		CarID:        session.CarID,
		PileID:       session.PileID,
		StartTime:    session.StartTime,
		EndTime:      endTime,
		DeliveredKWh: delivered,
		Mode:         pile.Type,
		ChargeFee:    chargeFee,
		ServiceFee:   serviceFee,
		TotalFee:     totalFee,
	}

	s.log.Info("Bill created",
		zap.String("bill_id", bill.ID),
		zap.String("car_id", bill.CarID),
		zap.Float64("delivered_kwh", bill.DeliveredKWh),
		zap.Float64("total_fee", bill.TotalFee),
	)
	return bill
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
