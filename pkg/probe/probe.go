// Package probe defines probe kinds and the 64-bit wire encoding used by
// instrumented code to report a probe hit.
package probe

import "strconv"

// Kind identifies what an instrumentation point measures.
type Kind uint8

// Probe kinds. The numeric values are part of the coverage map format.
const (
	KindLine          Kind = 0
	KindFunctionEntry Kind = 1
	KindBranchTrue    Kind = 2
	KindBranchFalse   Kind = 3
)

// Encoding layout: the low 56 bits carry the probe id, the high 8 bits the kind.
const (
	idBits  = 56
	IDMask  = uint64(1)<<idBits - 1
	kindMax = 0xFF
)

var kindNames = [...]string{
	KindLine:          "line",
	KindFunctionEntry: "function",
	KindBranchTrue:    "branch_true",
	KindBranchFalse:   "branch_false",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the four defined kinds.
func (k Kind) Valid() bool {
	return k <= KindBranchFalse
}

// IsBranch reports whether k is a branch-true or branch-false kind.
func (k Kind) IsBranch() bool {
	return k == KindBranchTrue || k == KindBranchFalse
}

// Decode splits an encoded hit into its probe id and kind.
// Bits above the id field that do not fit in the kind are discarded.
func Decode(encoded int64) (uint64, Kind) {
	raw := uint64(encoded)

	return raw & IDMask, Kind((raw >> idBits) & kindMax)
}

// DecodeEx converts the pre-split form used by the two-argument entry point.
// Kinds outside 0-255 are truncated.
func DecodeEx(probeID int64, kind int32) (uint64, Kind) {
	return uint64(probeID), Kind(uint8(kind)) //nolint:gosec // truncation is part of the wire contract.
}

// Encode packs id and kind into the single-argument wire form.
// Ids must be below 2^56.
func Encode(id uint64, kind Kind) int64 {
	return int64((uint64(kind) << idBits) | (id & IDMask)) //nolint:gosec // bit packing.
}
