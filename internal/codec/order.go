// internal/codec/order.go
package codec

import "fmt"

// WordOrder names the device layout of a four-register value.
// Letters are the canonical big-endian registers A (most significant) to D.
type WordOrder string

const (
	ABCD WordOrder = "ABCD" // identity
	BADC WordOrder = "BADC" // pairs swapped within each half
	CDAB WordOrder = "CDAB" // halves swapped
	DCBA WordOrder = "DCBA" // fully reversed
)

// permutations[o][i] is the device index holding canonical register i.
var permutations = map[WordOrder][4]int{
	ABCD: {0, 1, 2, 3},
	BADC: {1, 0, 3, 2},
	CDAB: {2, 3, 0, 1},
	DCBA: {3, 2, 1, 0},
}

// ParseWordOrder validates a word order token. Empty means ABCD.
func ParseWordOrder(s string) (WordOrder, error) {
	if s == "" {
		return ABCD, nil
	}
	o := WordOrder(s)
	if _, ok := permutations[o]; !ok {
		return "", fmt.Errorf("codec: invalid word order %q (want ABCD|BADC|CDAB|DCBA)", s)
	}
	return o, nil
}

// Valid reports whether o is one of the four permitted tokens.
func (o WordOrder) Valid() bool {
	_, ok := permutations[o]
	return ok
}

func (o WordOrder) perm() [4]int {
	if p, ok := permutations[o]; ok {
		return p
	}
	return permutations[ABCD]
}

// ToCanonical reorders device registers into canonical big-endian order.
func (o WordOrder) ToCanonical(dev [4]uint16) [4]uint16 {
	p := o.perm()
	var out [4]uint16
	for i := range out {
		out[i] = dev[p[i]]
	}
	return out
}

// ToDevice applies the inverse permutation of ToCanonical.
func (o WordOrder) ToDevice(canon [4]uint16) [4]uint16 {
	p := o.perm()
	var out [4]uint16
	for i := range out {
		out[p[i]] = canon[i]
	}
	return out
}
