// internal/codec/doc.go

// Package codec converts between typed values and the Modbus wire model:
// ordered 16-bit registers and single bits.
//
// Everything here is pure. No I/O, no state.
package codec
