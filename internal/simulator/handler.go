// internal/simulator/handler.go
package simulator

import (
	"github.com/rs/zerolog"
	"github.com/simonvetter/modbus"

	"github.com/tamzrod/modbus-gateway/internal/mberr"
)

// Handler exposes a Bank through a simonvetter/modbus server.
// The server calls it from one goroutine per client; Bank does its own locking.
type Handler struct {
	bank   *Bank
	logger zerolog.Logger
}

// NewHandler wraps bank for use with modbus.NewServer.
func NewHandler(bank *Bank, logger zerolog.Logger) *Handler {
	return &Handler{bank: bank, logger: logger}
}

var _ modbus.RequestHandler = (*Handler)(nil)

func (h *Handler) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	h.trace("coils", req.UnitId, req.Addr, req.Quantity, req.IsWrite)
	if req.IsWrite {
		return nil, toServerError(h.bank.WriteCoils(req.Addr, req.Args))
	}
	bits, err := h.bank.ReadCoils(req.Addr, req.Quantity)
	return bits, toServerError(err)
}

func (h *Handler) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	h.trace("discrete_inputs", req.UnitId, req.Addr, req.Quantity, false)
	bits, err := h.bank.ReadDiscreteInputs(req.Addr, req.Quantity)
	return bits, toServerError(err)
}

func (h *Handler) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	h.trace("holding_registers", req.UnitId, req.Addr, req.Quantity, req.IsWrite)
	if req.IsWrite {
		return nil, toServerError(h.bank.WriteHoldingRegisters(req.Addr, req.Args))
	}
	regs, err := h.bank.ReadHoldingRegisters(req.Addr, req.Quantity)
	return regs, toServerError(err)
}

func (h *Handler) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	h.trace("input_registers", req.UnitId, req.Addr, req.Quantity, false)
	regs, err := h.bank.ReadInputRegisters(req.Addr, req.Quantity)
	return regs, toServerError(err)
}

func (h *Handler) trace(table string, unit uint8, addr, qty uint16, write bool) {
	h.logger.Trace().
		Str("table", table).
		Uint8("unit", unit).
		Uint16("addr", addr).
		Uint16("qty", qty).
		Bool("write", write).
		Msg("request")
}

// toServerError maps bank errors onto the errors simonvetter/modbus
// turns into exception responses.
func toServerError(err error) error {
	if err == nil {
		return nil
	}
	c := mberr.CodeOf(err)
	if !c.IsException() {
		return modbus.ErrServerDeviceFailure
	}
	switch c.Exception() {
	case 1:
		return modbus.ErrIllegalFunction
	case 2:
		return modbus.ErrIllegalDataAddress
	case 3:
		return modbus.ErrIllegalDataValue
	case 5:
		return modbus.ErrAcknowledge
	case 6:
		return modbus.ErrServerDeviceBusy
	case 8:
		return modbus.ErrMemoryParityError
	case 10:
		return modbus.ErrGWPathUnavailable
	case 11:
		return modbus.ErrGWTargetFailedToRespond
	default:
		return modbus.ErrServerDeviceFailure
	}
}
