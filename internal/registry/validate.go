// internal/registry/validate.go
package registry

import (
	"strconv"

	"github.com/tamzrod/modbus-gateway/internal/codec"
)

// normalize checks one item and returns its normalized copy.
// Checks run in a fixed order so the first violation reported is stable.
func normalize(ic ItemConfig) (ItemConfig, error) {
	fail := func(field, reason string) (ItemConfig, error) {
		return ItemConfig{}, &ValidationError{Item: ic.Name, Field: field, Reason: reason}
	}

	if ic.Name == "" {
		return fail("name", "must not be empty")
	}
	if !ic.Function.Valid() {
		return fail("function", "must be one of 1,2,3,4,5,6,15,16")
	}
	if !ic.Type.Valid() {
		return fail("type", "must be one of bool,int16,uint16,int32,uint32,float32,float64")
	}

	// unit 0 is the broadcast address; only writes may target it
	if ic.UnitID < 0 || ic.UnitID > MaxUnitID {
		return fail("unit_id", "must be in [1,247]")
	}
	if ic.UnitID == BroadcastUnit && !ic.Function.IsWrite() {
		return fail("unit_id", "broadcast unit 0 is only valid on write functions")
	}

	if ic.Address < 0 || ic.Address > 0xFFFF {
		return fail("address", "must be in [0,65535]")
	}

	if ic.Count < 1 {
		if ic.CountSet {
			return fail("count", "must be >= 1")
		}
		ic.Count = 1
	}
	if ic.Function == WriteSingleCoil || ic.Function == WriteSingleRegister {
		ic.Count = 1
	}

	// ---- type / function compatibility ----

	if ic.Function.IsBit() && ic.Type != Bool {
		return fail("type", "bit functions require bool")
	}
	if ic.Function.IsRegister() && ic.Type == Bool {
		return fail("type", "register functions forbid bool")
	}

	if ic.WordOrder == "" {
		ic.WordOrder = codec.ABCD
	}
	if !ic.WordOrder.Valid() {
		return fail("word_order", "must be one of ABCD,BADC,CDAB,DCBA")
	}

	// covers float32 as well as float64: function 6 carries one register
	if ic.Function == WriteSingleRegister && ic.Type.Registers() > 1 {
		return fail("type", string(ic.Type)+" does not fit a single register (function 6)")
	}

	if width := ic.Type.Registers(); width > 0 && ic.Function.IsRegister() {
		if ic.CountSet && ic.Count != width {
			return fail("count", string(ic.Type)+" occupies exactly "+strconv.Itoa(width)+" registers")
		}
		ic.Count = width
	}

	if ic.Address+ic.Count-1 > 0xFFFF {
		return fail("count", "address range exceeds 65535")
	}

	if ic.PollMs < 0 {
		return fail("poll_ms", "must be >= 0")
	}

	return ic, nil
}
