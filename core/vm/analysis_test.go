// Copyright 2024 The flarevm Authors
// This file is part of the flarevm library.
//
// The flarevm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The flarevm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the flarevm library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/flarevm/flarevm/params"
)

func TestAnalyzeEmptyCode(t *testing.T) {
	a := Analyze(Shanghai, nil)
	// A begin-block marker and the synthetic trailing STOP.
	require.Len(t, a.instrs, 2)
	require.Empty(t, a.jumpdestOffsets)
}

func TestAnalyzeBlockGas(t *testing.T) {
	// PUSH1 1, PUSH1 2, ADD, STOP: one block costing 3+3+3.
	code := []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(ADD), byte(STOP)}
	a := Analyze(Shanghai, code)

	bi := unpackBlockInfo(a.instrs[0].arg)
	require.Equal(t, uint32(9), bi.gasCost)
	require.Equal(t, int16(0), bi.stackReq)
	require.Equal(t, int16(2), bi.stackMaxGrowth)
}

func TestAnalyzeStackReq(t *testing.T) {
	// SWAP1 on its own needs two items on entry.
	a := Analyze(Shanghai, []byte{byte(SWAP1)})
	bi := unpackBlockInfo(a.instrs[0].arg)
	require.Equal(t, int16(2), bi.stackReq)

	// The pushes satisfy the ADD, nothing required on entry.
	a = Analyze(Shanghai, []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(ADD)})
	bi = unpackBlockInfo(a.instrs[0].arg)
	require.Equal(t, int16(0), bi.stackReq)

	// One push is not enough for the ADD: one item required on entry.
	a = Analyze(Shanghai, []byte{byte(PUSH1), 1, byte(ADD)})
	bi = unpackBlockInfo(a.instrs[0].arg)
	require.Equal(t, int16(1), bi.stackReq)
}

func TestAnalyzeJumpdestIndex(t *testing.T) {
	// JUMPDEST at 0, a PUSH2 whose immediate contains the JUMPDEST byte,
	// and a real JUMPDEST at 4.
	code := []byte{
		byte(JUMPDEST),
		byte(PUSH2), byte(JUMPDEST), byte(JUMPDEST),
		byte(JUMPDEST),
		byte(STOP),
	}
	a := Analyze(Shanghai, code)

	require.Equal(t, []int32{0, 4}, a.jumpdestOffsets)
	require.Len(t, a.jumpdestTargets, 2)

	// Probe every offset around the code: only 0 and 4 resolve.
	for off := -1; off <= len(code); off++ {
		var v uint256.Int
		if off >= 0 {
			v.SetUint64(uint64(off))
		} else {
			v.SetAllOne()
		}
		idx := findJumpdest(a, &v)
		if off == 0 || off == 4 {
			require.GreaterOrEqual(t, idx, 0, "offset %d must resolve", off)
			require.Less(t, idx, len(a.instrs))
		} else {
			require.Equal(t, -1, idx, "offset %d must not resolve", off)
		}
	}
}

func TestAnalyzeJumpdestOffsetsSorted(t *testing.T) {
	code := make([]byte, 0, 64)
	for i := 0; i < 16; i++ {
		code = append(code, byte(JUMPDEST), byte(PUSH1), 0xff)
	}
	a := Analyze(Shanghai, code)
	require.Len(t, a.jumpdestOffsets, 16)
	for i := 1; i < len(a.jumpdestOffsets); i++ {
		require.Less(t, a.jumpdestOffsets[i-1], a.jumpdestOffsets[i])
	}
}

func TestAnalyzeSmallPushPacking(t *testing.T) {
	// Full PUSH4 immediate packs big-endian.
	a := Analyze(Shanghai, []byte{byte(PUSH4), 0xde, 0xad, 0xbe, 0xef})
	require.Equal(t, uint64(0xdeadbeef), a.instrs[1].arg)

	// PUSH1 data doubling as the only byte.
	a = Analyze(Shanghai, []byte{byte(PUSH1), 0x42})
	require.Equal(t, uint64(0x42), a.instrs[1].arg)
}

func TestAnalyzeTruncatedSmallPush(t *testing.T) {
	// PUSH2 with one immediate byte: the missing trailing byte reads as
	// zero, so the decoded value keeps the present byte in the high
	// position.
	a := Analyze(Shanghai, []byte{byte(PUSH2), 0xaa})
	require.Equal(t, uint64(0xaa00), a.instrs[1].arg)

	// PUSH8 with no immediate at all decodes to zero.
	a = Analyze(Shanghai, []byte{byte(PUSH8)})
	require.Equal(t, uint64(0), a.instrs[1].arg)
}

func TestAnalyzeTruncatedLargePush(t *testing.T) {
	// PUSH32 with only two immediate bytes. The executor must zero-pad the
	// missing trailing bytes, mirroring the small-push decoding.
	code := []byte{byte(PUSH32), 0xab, 0xcd}
	a := Analyze(Shanghai, code)

	s := acquireState()
	s.reset(Shanghai, &Message{Gas: 100}, nil, code, a)
	defer releaseState(s)

	next := a.instrs[1].fn(1, s)
	require.Equal(t, 2, next)

	var want uint256.Int
	var full [32]byte
	full[0], full[1] = 0xab, 0xcd
	want.SetBytes(full[:])
	require.Equal(t, want, *s.Stack.peek())
}

func TestAnalyzeLargePushRoundTrip(t *testing.T) {
	code := make([]byte, 33)
	code[0] = byte(PUSH32)
	for i := 1; i <= 32; i++ {
		code[i] = byte(i)
	}
	a := Analyze(Shanghai, code)

	s := acquireState()
	s.reset(Shanghai, &Message{Gas: 100}, nil, code, a)
	defer releaseState(s)

	a.instrs[1].fn(1, s)
	var want uint256.Int
	want.SetBytes(code[1:])
	require.Equal(t, want, *s.Stack.peek())
}

func TestAnalyzeGasSnapshot(t *testing.T) {
	// PUSH1 0, GAS: snapshot at GAS is the block cost through GAS itself.
	code := []byte{byte(PUSH1), 0, byte(GAS)}
	a := Analyze(Shanghai, code)
	require.Equal(t, uint64(3+2), a.instrs[2].arg)
}

func TestAnalyzePCArg(t *testing.T) {
	code := []byte{byte(PUSH2), 0, 0, byte(PC)}
	a := Analyze(Shanghai, code)
	require.Equal(t, uint64(3), a.instrs[2].arg)
}

func TestAnalyzeTerminatorsCloseBlocks(t *testing.T) {
	// Two blocks: the JUMP terminates the first, JUMPDEST starts the
	// second.
	code := []byte{
		byte(PUSH1), 4, byte(JUMP), // block 1
		0xff,                         // unreachable, still analysed
		byte(JUMPDEST), byte(STOP),   // block 2
	}
	a := Analyze(Shanghai, code)

	require.Len(t, a.jumpdestOffsets, 1)
	target := int(a.jumpdestTargets[0])

	bi := unpackBlockInfo(a.instrs[target].arg)
	require.Equal(t, uint32(1), bi.gasCost) // just the JUMPDEST itself
}

func TestAnalyzeArbitraryBytes(t *testing.T) {
	// Any byte soup must analyse into a stream with a non-nil executor in
	// every slot and a trailing halt.
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		code := make([]byte, rng.Intn(512))
		rng.Read(code)
		a := Analyze(Shanghai, code)

		require.NotEmpty(t, a.instrs)
		for j, instr := range a.instrs {
			require.NotNil(t, instr.fn, "nil executor at %d", j)
		}
		require.LessOrEqual(t, len(a.instrs), len(code)+3)
	}
}

func TestFindJumpdestHugeOffset(t *testing.T) {
	a := Analyze(Shanghai, []byte{byte(JUMPDEST)})

	var v uint256.Int
	v.SetAllOne()
	require.Equal(t, -1, findJumpdest(a, &v))

	v.SetUint64(1 << 40)
	require.Equal(t, -1, findJumpdest(a, &v))
}

func TestBlockInfoPackRoundTrip(t *testing.T) {
	for _, bi := range []blockInfo{
		{},
		{gasCost: 1, stackReq: 2, stackMaxGrowth: 3},
		{gasCost: 1 << 31, stackReq: -32768, stackMaxGrowth: 32767},
	} {
		require.Equal(t, bi, unpackBlockInfo(bi.pack()))
	}
}

func BenchmarkAnalyze(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	code := make([]byte, params.MaxCodeSize)
	rng.Read(code)

	b.SetBytes(int64(len(code)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Analyze(Shanghai, code)
	}
}
