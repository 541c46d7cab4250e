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
	"math"
	"sort"

	"github.com/holiman/uint256"

	"github.com/flarevm/flarevm/params"
)

// instrFn executes the instruction at index n of the analysed stream and
// returns the index of the next instruction to run, or the terminated
// sentinel after recording a status on the execution state. Dispatching on
// indices rather than instruction pointers keeps the stream relocatable.
type instrFn func(n int, s *ExecutionState) int

// terminated ends the dispatch loop. Handlers return it via
// ExecutionState.exit which records the final status.
const terminated = -1

// instruction is one slot of the analysed instruction stream. The arg slot is
// a 64-bit payload whose interpretation is fixed by the opcode that owns the
// instruction: a packed blockInfo for begin-block markers, a packed immediate
// for small pushes, a code offset for large pushes, and a plain number for
// PC and the gas-snapshotting opcodes.
type instruction struct {
	fn  instrFn
	arg uint64
}

// blockInfo is the aggregated static cost of one basic block, packed into the
// begin-block marker's arg slot.
type blockInfo struct {
	gasCost        uint32
	stackReq       int16
	stackMaxGrowth int16
}

const (
	// maxInstructionBaseCost bounds the constant gas cost of a single
	// instruction in any revision's table (CREATE, at 32000, is the
	// largest).
	maxInstructionBaseCost = 32768

	// maxInstructionStackIncrease bounds the net stack growth of a single
	// instruction.
	maxInstructionStackIncrease = 1
)

// The packed blockInfo fields cannot overflow for valid code sizes. These
// fail to compile if the bounds stop holding.
const (
	_ uint32 = params.MaxCodeSize * maxInstructionBaseCost
	_ int16  = params.MaxCodeSize * maxInstructionStackIncrease
)

func (bi blockInfo) pack() uint64 {
	return uint64(bi.gasCost)<<32 |
		uint64(uint16(bi.stackReq))<<16 |
		uint64(uint16(bi.stackMaxGrowth))
}

func unpackBlockInfo(arg uint64) blockInfo {
	return blockInfo{
		gasCost:        uint32(arg >> 32),
		stackReq:       int16(uint16(arg >> 16)),
		stackMaxGrowth: int16(uint16(arg)),
	}
}

func clampToUint32(v int64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func clampToInt16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// blockBuilder accumulates the running static cost of the basic block being
// scanned. beginIndex is the begin-block marker the closed info is written to.
type blockBuilder struct {
	gasCost        int64
	stackReq       int
	stackChange    int
	stackMaxGrowth int
	beginIndex     int
}

// close clamps the accumulators into the packed representation. gasCost and
// stackMaxGrowth cannot exceed their widths for valid code sizes (see the
// constants above); stackReq may saturate, in which case the saturated value
// still correctly reports a block unsatisfiable on any practical stack.
func (b *blockBuilder) close() blockInfo {
	return blockInfo{
		gasCost:        clampToUint32(b.gasCost),
		stackReq:       clampToInt16(b.stackReq),
		stackMaxGrowth: clampToInt16(b.stackMaxGrowth),
	}
}

// CodeAnalysis is the analysed form of a bytecode blob: the executable
// instruction stream plus the jump destination index. It is produced fresh
// per (code, revision) pair and may be shared across sequential runs but
// never mutated after Analyze returns.
type CodeAnalysis struct {
	instrs []instruction

	// The bytecode offsets of JUMPDESTs, sorted ascending, and the indices
	// of their begin-block markers in instrs, kept parallel.
	jumpdestOffsets []int32
	jumpdestTargets []int32
}

// Analyze partitions code into basic blocks and produces the executable
// instruction stream for the given revision. It accepts any byte sequence,
// including empty and mid-push truncated code, and always yields a stream
// ending in a halting instruction.
func Analyze(rev Revision, code []byte) *CodeAnalysis {
	tbl := Table(rev)
	beginBlockFn := tbl[JUMPDEST].execute

	analysis := &CodeAnalysis{
		// Every byte yields at most one instruction; +2 for the leading
		// marker and the trailing synthetic STOP.
		instrs: make([]instruction, 0, len(code)+2),
	}

	// Open the first block.
	analysis.instrs = append(analysis.instrs, instruction{fn: beginBlockFn})
	block := blockBuilder{}

	pos := 0
	for pos < len(code) {
		op := OpCode(code[pos])
		pos++
		entry := &tbl[op]

		// Minimum stack height at block entry for this instruction to
		// not underflow, given the net change accumulated so far.
		if req := int(entry.stackReq) - block.stackChange; req > block.stackReq {
			block.stackReq = req
		}
		block.stackChange += int(entry.stackChange)
		if block.stackChange > block.stackMaxGrowth {
			block.stackMaxGrowth = block.stackChange
		}
		block.gasCost += int64(entry.constantGas)

		if op == JUMPDEST {
			// The JUMPDEST aliases the begin-block marker already in
			// place; no instruction of its own.
			analysis.jumpdestOffsets = append(analysis.jumpdestOffsets, int32(pos-1))
			analysis.jumpdestTargets = append(analysis.jumpdestTargets, int32(len(analysis.instrs)-1))
		} else {
			analysis.instrs = append(analysis.instrs, instruction{fn: entry.execute})
		}
		instr := &analysis.instrs[len(analysis.instrs)-1]

		isTerminator := false
		switch {
		case op == JUMP || op == JUMPI || op == STOP || op == RETURN ||
			op == REVERT || op == SELFDESTRUCT:
			isTerminator = true

		case PUSH1 <= op && op <= PUSH8:
			// Pack the immediate big-endian into the arg slot. Bytes
			// past the end of code read as zero.
			size := op.pushDataSize()
			end := pos + size
			if end > len(code) {
				end = len(code)
			}
			var value uint64
			shift := (size - 1) * 8
			for ; pos < end; pos++ {
				value |= uint64(code[pos]) << shift
				shift -= 8
			}
			instr.arg = value
			pos = end

		case PUSH9 <= op && op <= PUSH32:
			// Record the immediate's start offset; the push executor
			// knows its length and zero-pads reads past end of code.
			instr.arg = uint64(pos)
			pos += op.pushDataSize()
			if pos > len(code) {
				pos = len(code)
			}

		case op == GAS || op == CALL || op == CALLCODE || op == DELEGATECALL ||
			op == STATICCALL || op == CREATE || op == CREATE2 || op == SSTORE:
			// Snapshot of the block's running gas cost, to reconstruct
			// the true remaining gas at this instruction.
			instr.arg = uint64(block.gasCost)

		case op == PC:
			instr.arg = uint64(pos - 1)
		}

		if isTerminator || (pos < len(code) && OpCode(code[pos]) == JUMPDEST) {
			// Close the current block and open a new one.
			analysis.instrs[block.beginIndex].arg = block.close().pack()
			analysis.instrs = append(analysis.instrs, instruction{fn: beginBlockFn})
			block = blockBuilder{beginIndex: len(analysis.instrs) - 1}
		}
	}

	// Close the last block.
	analysis.instrs[block.beginIndex].arg = block.close().pack()

	// Terminate the stream regardless of how the code ends.
	analysis.instrs = append(analysis.instrs, instruction{fn: tbl[STOP].execute})

	return analysis
}

// findJumpdest maps a bytecode offset to the instruction index of the block
// starting at that offset, or -1 if the offset is not a valid jump
// destination. The jump executors translate -1 into a bad-jump failure.
func findJumpdest(a *CodeAnalysis, offset *uint256.Int) int {
	if !offset.IsUint64() || offset.Uint64() > math.MaxInt32 {
		return -1
	}
	o := int32(offset.Uint64())
	i := sort.Search(len(a.jumpdestOffsets), func(i int) bool {
		return a.jumpdestOffsets[i] >= o
	})
	if i < len(a.jumpdestOffsets) && a.jumpdestOffsets[i] == o {
		return int(a.jumpdestTargets[i])
	}
	return -1
}
