// internal/transport/goburrow/client.go
package goburrow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/mberr"
	"github.com/tamzrod/modbus-gateway/internal/transport"
)

// Mode selects the goburrow client handler.
type Mode string

const (
	ModeTCP   Mode = "tcp"
	ModeRTU   Mode = "rtu"
	ModeASCII Mode = "ascii"
)

// Config is the link configuration.
// Address is host:port for TCP and the serial device path otherwise.
type Config struct {
	Mode        Mode
	Address     string
	Timeout     time.Duration
	IdleTimeout time.Duration

	// serial only
	BaudRate int
	DataBits int
	Parity   string // N, E, O
	StopBits int
}

// handler is the part of the goburrow handlers the client drives.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Client implements transport.Transport on top of goburrow/modbus.
// goburrow handlers keep the unit id in the handler itself, so the client
// mutates it per request and serializes all calls.
type Client struct {
	mu         sync.Mutex
	cfg        Config
	handler    handler
	client     modbus.Client
	setSlave   func(uint8)
	setTimeout func(time.Duration)
	connected  bool
	logger     zerolog.Logger
}

var _ transport.Transport = (*Client)(nil)

// New builds a disconnected client. Call Connect before use.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("goburrow transport: address required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.With().Str("transport", string(cfg.Mode)).Str("address", cfg.Address).Logger(),
	}

	switch cfg.Mode {
	case ModeTCP, "":
		h := modbus.NewTCPClientHandler(cfg.Address)
		h.Timeout = cfg.Timeout
		h.IdleTimeout = cfg.IdleTimeout
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
		c.setTimeout = func(d time.Duration) { h.Timeout = d }

	case ModeRTU:
		h := modbus.NewRTUClientHandler(cfg.Address)
		applySerial(&h.BaudRate, &h.DataBits, &h.Parity, &h.StopBits, cfg)
		h.Timeout = cfg.Timeout
		h.IdleTimeout = cfg.IdleTimeout
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
		c.setTimeout = func(d time.Duration) { h.Timeout = d }

	case ModeASCII:
		h := modbus.NewASCIIClientHandler(cfg.Address)
		applySerial(&h.BaudRate, &h.DataBits, &h.Parity, &h.StopBits, cfg)
		h.Timeout = cfg.Timeout
		h.IdleTimeout = cfg.IdleTimeout
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
		c.setTimeout = func(d time.Duration) { h.Timeout = d }

	default:
		return nil, fmt.Errorf("goburrow transport: unknown mode %q", cfg.Mode)
	}

	c.client = modbus.NewClient(c.handler)
	return c, nil
}

func applySerial(baud, data *int, parity *string, stop *int, cfg Config) {
	if cfg.BaudRate > 0 {
		*baud = cfg.BaudRate
	}
	if cfg.DataBits > 0 {
		*data = cfg.DataBits
	}
	if cfg.Parity != "" {
		*parity = cfg.Parity
	}
	if cfg.StopBits > 0 {
		*stop = cfg.StopBits
	}
}

// ---- lifecycle ----

// Connect (re)opens the link. Any previous connection is closed first.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.handler.Close()
	c.connected = false

	if err := c.handler.Connect(); err != nil {
		c.logger.Warn().Err(err).Msg("connect failed")
		return mberr.Wrap(mberr.IOError, err)
	}

	c.connected = true
	c.logger.Debug().Msg("connected")
	return nil
}

// Close releases the link. Operations fail with NOT_CONNECTED afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.handler.Close()
}

// SetTimeout changes the response timeout for subsequent requests.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Timeout = d
	c.setTimeout(d)
}

// ---- transport.Transport ----

func (c *Client) ReadCoils(unit uint8, addr, count uint16) ([]bool, error) {
	if err := checkQuantity(count, transport.MaxReadBits); err != nil {
		return nil, err
	}
	var bits []bool
	err := c.do(unit, "read_coils", func(cl modbus.Client) error {
		raw, err := cl.ReadCoils(addr, count)
		if err != nil {
			return err
		}
		bits, err = unpackBits(raw, count)
		return err
	})
	return bits, err
}

func (c *Client) ReadDiscreteInputs(unit uint8, addr, count uint16) ([]bool, error) {
	if err := checkQuantity(count, transport.MaxReadBits); err != nil {
		return nil, err
	}
	var bits []bool
	err := c.do(unit, "read_discrete_inputs", func(cl modbus.Client) error {
		raw, err := cl.ReadDiscreteInputs(addr, count)
		if err != nil {
			return err
		}
		bits, err = unpackBits(raw, count)
		return err
	})
	return bits, err
}

func (c *Client) ReadHoldingRegisters(unit uint8, addr, count uint16) ([]uint16, error) {
	if err := checkQuantity(count, transport.MaxReadRegisters); err != nil {
		return nil, err
	}
	var regs []uint16
	err := c.do(unit, "read_holding_registers", func(cl modbus.Client) error {
		raw, err := cl.ReadHoldingRegisters(addr, count)
		if err != nil {
			return err
		}
		regs, err = registers(raw, count)
		return err
	})
	return regs, err
}

func (c *Client) ReadInputRegisters(unit uint8, addr, count uint16) ([]uint16, error) {
	if err := checkQuantity(count, transport.MaxReadRegisters); err != nil {
		return nil, err
	}
	var regs []uint16
	err := c.do(unit, "read_input_registers", func(cl modbus.Client) error {
		raw, err := cl.ReadInputRegisters(addr, count)
		if err != nil {
			return err
		}
		regs, err = registers(raw, count)
		return err
	})
	return regs, err
}

func (c *Client) WriteSingleCoil(unit uint8, addr uint16, on bool) error {
	v := uint16(0x0000)
	if on {
		v = 0xFF00
	}
	return c.do(unit, "write_single_coil", func(cl modbus.Client) error {
		_, err := cl.WriteSingleCoil(addr, v)
		return err
	})
}

func (c *Client) WriteSingleRegister(unit uint8, addr, v uint16) error {
	return c.do(unit, "write_single_register", func(cl modbus.Client) error {
		_, err := cl.WriteSingleRegister(addr, v)
		return err
	})
}

func (c *Client) WriteMultipleCoils(unit uint8, addr uint16, bits []bool) error {
	if len(bits) == 0 || len(bits) > transport.MaxWriteBits {
		return mberr.New(mberr.InvalidArg, "coil count %d out of range", len(bits))
	}
	return c.do(unit, "write_multiple_coils", func(cl modbus.Client) error {
		_, err := cl.WriteMultipleCoils(addr, uint16(len(bits)), codec.PackBits(bits))
		return err
	})
}

func (c *Client) WriteMultipleRegisters(unit uint8, addr uint16, regs []uint16) error {
	if len(regs) == 0 || len(regs) > transport.MaxWriteRegisters {
		return mberr.New(mberr.InvalidArg, "register count %d out of range", len(regs))
	}
	return c.do(unit, "write_multiple_registers", func(cl modbus.Client) error {
		_, err := cl.WriteMultipleRegisters(addr, uint16(len(regs)), codec.PackRegisters(regs))
		return err
	})
}

// ---- internal ----

// do runs one request for unit under the client lock and classifies the result.
func (c *Client) do(unit uint8, op string, fn func(modbus.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return mberr.New(mberr.NotConnected, "%s: link closed", op)
	}

	c.setSlave(unit)
	err := fn(c.client)
	if err == nil {
		return nil
	}

	// Broadcast requests get no response; a timeout is the expected outcome.
	if unit == 0 && isTimeout(err) {
		c.logger.Trace().Str("op", op).Msg("broadcast sent")
		return nil
	}

	code := classify(err)
	if code == mberr.NotConnected {
		// Drop the socket so the next Connect starts clean.
		_ = c.handler.Close()
		c.connected = false
		c.logger.Warn().Err(err).Str("op", op).Msg("link lost")
	} else {
		c.logger.Debug().Err(err).Str("op", op).Uint8("unit", unit).Msg("request failed")
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return mberr.Exception(me.ExceptionCode)
	}
	return &mberr.Error{Code: code, Msg: op, Err: err}
}

func checkQuantity(count uint16, limit int) error {
	if count == 0 || int(count) > limit {
		return mberr.New(mberr.InvalidArg, "quantity %d out of range [1,%d]", count, limit)
	}
	return nil
}

func unpackBits(raw []byte, count uint16) ([]bool, error) {
	if len(raw) < (int(count)+7)/8 {
		return nil, mberr.New(mberr.ParseError, "short bit payload: %d bytes for %d bits", len(raw), count)
	}
	return codec.UnpackBits(raw, int(count)), nil
}

func registers(raw []byte, count uint16) ([]uint16, error) {
	if len(raw) < 2*int(count) {
		return nil, mberr.New(mberr.ParseError, "short register payload: %d bytes for %d registers", len(raw), count)
	}
	return codec.UnpackRegisters(raw[:2*int(count)]), nil
}
