package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		encoded  int64
		wantID   uint64
		wantKind Kind
	}{
		{name: "plain line probe", encoded: 42, wantID: 42, wantKind: KindLine},
		{name: "function entry", encoded: Encode(7, KindFunctionEntry), wantID: 7, wantKind: KindFunctionEntry},
		{name: "branch false", encoded: Encode(1<<40, KindBranchFalse), wantID: 1 << 40, wantKind: KindBranchFalse},
		{name: "max id", encoded: Encode(IDMask, KindBranchTrue), wantID: IDMask, wantKind: KindBranchTrue},
		{name: "all bits set", encoded: -1, wantID: IDMask, wantKind: Kind(0xFF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, kind := Decode(tt.encoded)

			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestEncode_DropsHighIDBits(t *testing.T) {
	t.Parallel()

	id, kind := Decode(Encode(IDMask+5, KindLine))

	assert.Equal(t, uint64(4), id)
	assert.Equal(t, KindLine, kind)
}

func TestDecodeEx_TruncatesKind(t *testing.T) {
	t.Parallel()

	id, kind := DecodeEx(99, 0x102)

	assert.Equal(t, uint64(99), id)
	assert.Equal(t, KindBranchTrue, kind)
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "line", KindLine.String())
	assert.Equal(t, "function", KindFunctionEntry.String())
	assert.Equal(t, "branch_true", KindBranchTrue.String())
	assert.Equal(t, "branch_false", KindBranchFalse.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestKind_Predicates(t *testing.T) {
	t.Parallel()

	assert.True(t, KindBranchFalse.Valid())
	assert.False(t, Kind(4).Valid())
	assert.True(t, KindBranchTrue.IsBranch())
	assert.False(t, KindLine.IsBranch())
}
