package tcp

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/observability/telemetry"
	"github.com/voltgrid/evstation/internal/ports"
)

type Request struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Waker lets the router nudge the scheduler after events that may enable
// progress (request admitted, charge ended, pile brought online).
type Waker interface {
	Wake()
}

type Router struct {
	accounts ports.AccountService
	charging ports.ChargingService
	reports  ports.ReportService
	waker    Waker
	log      *zap.Logger
}

func NewRouter(accounts ports.AccountService, charging ports.ChargingService, reports ports.ReportService, waker Waker, log *zap.Logger) *Router {
	return &Router{
		accounts: accounts,
		charging: charging,
		reports:  reports,
		waker:    waker,
		log:      log,
	}
}

// Handle dispatches one wire action. Service errors never escape as panics;
// they come back as error responses with the failure kind's short message.
func (r *Router) Handle(ctx context.Context, req *Request) *Response {
	resp := r.dispatch(ctx, req)
	telemetry.ActionsTotal.WithLabelValues(req.Action, resp.Status).Inc()
	if resp.Status != "success" {
		r.log.Info("Action failed",
			zap.String("action", req.Action),
			zap.String("message", resp.Message),
		)
	}
	return resp
}

func (r *Router) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Action {
	case "register":
		return r.handleRegister(ctx, req.Data)
	case "login":
		return r.handleLogin(ctx, req.Data)
	case "submit_charging_request":
		return r.handleSubmitChargingRequest(ctx, req.Data)
	case "end_charging":
		return r.handleEndCharging(ctx, req.Data)
	case "get_charging_details":
		return r.handleGetChargingDetails(ctx, req.Data)
	case "get_all_piles":
		return r.handleGetAllPiles(ctx)
	case "toggle_pile_state":
		return r.handleTogglePileState(ctx, req.Data)
	case "report_pile_fault":
		return r.handleReportPileFault(ctx, req.Data)
	case "recover_pile":
		return r.handleRecoverPile(ctx, req.Data)
	case "get_pile_queue":
		return r.handleGetPileQueue(ctx, req.Data)
	case "get_reports":
		return r.handleGetReports(ctx, req.Data)
	default:
		return errResponse(domain.E(domain.KindValidation, "unknown action"))
	}
}

func (r *Router) handleRegister(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		UserID          string  `json:"user_id"`
		Password        string  `json:"password"`
		CarID           string  `json:"car_id"`
		BatteryCapacity float64 `json:"battery_capacity"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	if _, err := r.accounts.Register(ctx, payload.UserID, payload.Password, payload.CarID, payload.BatteryCapacity); err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Message: "registered"}
}

func (r *Router) handleLogin(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	user, token, err := r.accounts.Login(ctx, payload.UserID, payload.Password)
	if err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Data: map[string]interface{}{
		"user_id": user.ID,
		"car_id":  user.Car.ID,
		"token":   token,
	}}
}

func (r *Router) handleSubmitChargingRequest(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		CarID       string  `json:"car_id"`
		RequestMode string  `json:"request_mode"`
		Amount      float64 `json:"amount"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	mode, ok := domain.ParseChargeMode(payload.RequestMode)
	if !ok {
		return errResponse(domain.E(domain.KindValidation, "invalid mode"))
	}
	if payload.Amount <= 0 {
		return errResponse(domain.E(domain.KindValidation, "amount must be > 0"))
	}

	req, err := r.charging.CreateRequest(ctx, payload.CarID, mode, payload.Amount)
	if err != nil {
		return errResponse(err)
	}
	r.waker.Wake()
	return &Response{Status: "success", Data: map[string]interface{}{
		"queue_number": req.QueueNumber,
	}}
}

func (r *Router) handleEndCharging(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		CarID string `json:"car_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	bill, err := r.charging.EndCharging(ctx, payload.CarID)
	if err != nil {
		return errResponse(err)
	}
	r.waker.Wake()
	return &Response{Status: "success", Data: map[string]interface{}{
		"bill": bill,
	}}
}

func (r *Router) handleGetChargingDetails(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		CarID string `json:"car_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	details, err := r.charging.Details(ctx, payload.CarID)
	if err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Data: details}
}

func (r *Router) handleGetAllPiles(ctx context.Context) *Response {
	piles, err := r.charging.Piles(ctx)
	if err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Data: piles}
}

func (r *Router) handleTogglePileState(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		PileID string `json:"pile_id"`
		Start  bool   `json:"start"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	if err := r.charging.SetPileOnline(ctx, payload.PileID, payload.Start); err != nil {
		return errResponse(err)
	}
	if payload.Start {
		r.waker.Wake()
	}
	return &Response{Status: "success", Message: "state updated"}
}

func (r *Router) handleReportPileFault(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		PileID string `json:"pile_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	if err := r.charging.ReportFault(ctx, payload.PileID); err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Message: "fault recorded"}
}

func (r *Router) handleRecoverPile(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		PileID string `json:"pile_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	if err := r.charging.RecoverPile(ctx, payload.PileID); err != nil {
		return errResponse(err)
	}
	r.waker.Wake()
	return &Response{Status: "success", Message: "pile recovered"}
}

func (r *Router) handleGetPileQueue(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		PileID string `json:"pile_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}

	entries, err := r.charging.PileQueue(ctx, payload.PileID)
	if err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Data: entries}
}

func (r *Router) handleGetReports(ctx context.Context, data json.RawMessage) *Response {
	var payload struct {
		TimeRange string `json:"time_range"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return errResponse(domain.E(domain.KindValidation, "malformed request data"))
	}
	if payload.TimeRange == "" {
		payload.TimeRange = "day"
	}

	reports, err := r.reports.Report(ctx, payload.TimeRange)
	if err != nil {
		return errResponse(err)
	}
	return &Response{Status: "success", Data: reports}
}

func errResponse(err error) *Response {
	return &Response{Status: "error", Message: err.Error()}
}
