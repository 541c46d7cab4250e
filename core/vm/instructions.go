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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/flarevm/flarevm/params"
)

// maxBufferSize caps addressable memory regions. Regions beyond it are
// unpayable long before this bound, so it only guards arithmetic.
const maxBufferSize = math.MaxUint32

// getData returns a slice from the data based on the start and size and pads
// up to size with zero bytes. This function is overflow safe.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	return common.RightPadBytes(data[start:end], int(size))
}

// trueGasLeft reconstructs the actual remaining gas at instruction n. The
// begin-block instruction charges the whole block up front, so the portion of
// the block cost not yet reached must be credited back; the analyzer stored
// the block's running cost at this instruction in the arg slot.
func trueGasLeft(n int, s *ExecutionState) int64 {
	snapshot := int64(s.analysis.instrs[n].arg)
	return s.GasLeft + int64(s.currentBlockCost) - snapshot
}

// checkMemory charges for memory expansion of the [offset, offset+size)
// region and grows the memory. It reports the concrete byte offset and false
// on out-of-gas or an unpayable offset.
func checkMemory(s *ExecutionState, offset *uint256.Int, size uint64) (uint64, bool) {
	if size == 0 {
		// Zero-size regions never expand memory, whatever the offset.
		return 0, true
	}
	if !offset.IsUint64() || offset.Uint64() > maxBufferSize || size > maxBufferSize {
		return 0, false
	}
	off := offset.Uint64()
	words := toWordSize(off + size)
	newCost := int64(words*params.MemoryGas + words*words/params.QuadCoeffDiv)
	if delta := newCost - int64(s.Memory.lastGasCost); delta > 0 {
		s.GasLeft -= delta
		if s.GasLeft < 0 {
			return 0, false
		}
		s.Memory.lastGasCost = uint64(newCost)
		s.Memory.Resize(words * 32)
	}
	return off, true
}

func consumeCopyGas(s *ExecutionState, size uint64) bool {
	s.GasLeft -= int64(toWordSize(size) * params.CopyGas)
	return s.GasLeft >= 0
}

// accountAccessGas charges the EIP-2929 cold surcharge when addr has not been
// touched yet. The warm part is the table's constant cost.
func accountAccessGas(s *ExecutionState, addr common.Address) bool {
	if s.Revision >= Berlin && s.Host.AccessAccount(addr) == ColdAccess {
		s.GasLeft -= int64(params.ColdAccountAccessCostEIP2929 - params.WarmStorageReadCostEIP2929)
		if s.GasLeft < 0 {
			return false
		}
	}
	return true
}

// opBeginBlock validates and charges one basic block. It is the executor of
// every block-start marker (and thereby of JUMPDEST).
func opBeginBlock(n int, s *ExecutionState) int {
	bi := unpackBlockInfo(s.analysis.instrs[n].arg)
	if s.Stack.len() < int(bi.stackReq) {
		return s.exit(StackUnderflow)
	}
	if s.Stack.len()+int(bi.stackMaxGrowth) > params.StackLimit {
		return s.exit(StackOverflow)
	}
	s.GasLeft -= int64(bi.gasCost)
	if s.GasLeft < 0 {
		return s.exit(OutOfGas)
	}
	s.currentBlockCost = bi.gasCost
	return n + 1
}

func opStop(n int, s *ExecutionState) int {
	return s.exit(Success)
}

func opInvalid(n int, s *ExecutionState) int {
	return s.exit(InvalidInstruction)
}

func opUndefined(n int, s *ExecutionState) int {
	return s.exit(UndefinedInstruction)
}

func opAdd(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Add(&x, y)
	return n + 1
}

func opSub(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Sub(&x, y)
	return n + 1
}

func opMul(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Mul(&x, y)
	return n + 1
}

func opDiv(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Div(&x, y)
	return n + 1
}

func opSdiv(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.SDiv(&x, y)
	return n + 1
}

func opMod(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Mod(&x, y)
	return n + 1
}

func opSmod(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.SMod(&x, y)
	return n + 1
}

func opAddmod(n int, s *ExecutionState) int {
	x, y, z := s.Stack.pop(), s.Stack.pop(), s.Stack.peek()
	z.AddMod(&x, &y, z)
	return n + 1
}

func opMulmod(n int, s *ExecutionState) int {
	x, y, z := s.Stack.pop(), s.Stack.pop(), s.Stack.peek()
	z.MulMod(&x, &y, z)
	return n + 1
}

func opExp(n int, s *ExecutionState) int {
	base, exponent := s.Stack.pop(), s.Stack.peek()
	expBytes := (exponent.BitLen() + 7) / 8
	s.GasLeft -= int64(expBytes) * expByteCost(s.Revision)
	if s.GasLeft < 0 {
		return s.exit(OutOfGas)
	}
	exponent.Exp(&base, exponent)
	return n + 1
}

func opSignExtend(n int, s *ExecutionState) int {
	back, num := s.Stack.pop(), s.Stack.peek()
	num.ExtendSign(num, &back)
	return n + 1
}

func opLt(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return n + 1
}

func opGt(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return n + 1
}

func opSlt(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return n + 1
}

func opSgt(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return n + 1
}

func opEq(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return n + 1
}

func opIszero(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return n + 1
}

func opAnd(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.And(&x, y)
	return n + 1
}

func opOr(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Or(&x, y)
	return n + 1
}

func opXor(n int, s *ExecutionState) int {
	x, y := s.Stack.pop(), s.Stack.peek()
	y.Xor(&x, y)
	return n + 1
}

func opNot(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	x.Not(x)
	return n + 1
}

func opByte(n int, s *ExecutionState) int {
	th, val := s.Stack.pop(), s.Stack.peek()
	val.Byte(&th)
	return n + 1
}

func opSHL(n int, s *ExecutionState) int {
	shift, value := s.Stack.pop(), s.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return n + 1
}

func opSHR(n int, s *ExecutionState) int {
	shift, value := s.Stack.pop(), s.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return n + 1
}

func opSAR(n int, s *ExecutionState) int {
	shift, value := s.Stack.pop(), s.Stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
	} else {
		value.SRsh(value, uint(shift.Uint64()))
	}
	return n + 1
}

func opSha3(n int, s *ExecutionState) int {
	offset, size := s.Stack.pop(), s.Stack.peek()
	if !size.IsUint64() {
		return s.exit(OutOfGas)
	}
	sz := size.Uint64()
	off, ok := checkMemory(s, &offset, sz)
	if !ok {
		return s.exit(OutOfGas)
	}
	s.GasLeft -= int64(toWordSize(sz) * params.Keccak256WordGas)
	if s.GasLeft < 0 {
		return s.exit(OutOfGas)
	}
	size.SetBytes(crypto.Keccak256(s.Memory.GetPtr(off, sz)))
	return n + 1
}

func opAddress(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetBytes(s.Msg.Recipient.Bytes())
	s.Stack.push(&v)
	return n + 1
}

func opBalance(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	addr := common.Address(x.Bytes20())
	if !accountAccessGas(s, addr) {
		return s.exit(OutOfGas)
	}
	balance := s.Host.GetBalance(addr)
	x.Set(&balance)
	return n + 1
}

func opOrigin(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	var v uint256.Int
	v.SetBytes(tx.Origin.Bytes())
	s.Stack.push(&v)
	return n + 1
}

func opCaller(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetBytes(s.Msg.Sender.Bytes())
	s.Stack.push(&v)
	return n + 1
}

func opCallValue(n int, s *ExecutionState) int {
	v := s.Msg.Value
	s.Stack.push(&v)
	return n + 1
}

func opCallDataLoad(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		x.SetBytes(getData(s.Msg.Input, offset, 32))
	} else {
		x.Clear()
	}
	return n + 1
}

func opCallDataSize(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(uint64(len(s.Msg.Input)))
	s.Stack.push(&v)
	return n + 1
}

func opCallDataCopy(n int, s *ExecutionState) int {
	var (
		memOffset  = s.Stack.pop()
		dataOffset = s.Stack.pop()
		length     = s.Stack.pop()
	)
	if !length.IsUint64() {
		return s.exit(OutOfGas)
	}
	size := length.Uint64()
	off, ok := checkMemory(s, &memOffset, size)
	if !ok || !consumeCopyGas(s, size) {
		return s.exit(OutOfGas)
	}
	dataOff, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOff = math.MaxUint64
	}
	if size > 0 {
		s.Memory.Set(off, size, getData(s.Msg.Input, dataOff, size))
	}
	return n + 1
}

func opCodeSize(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(uint64(len(s.Code)))
	s.Stack.push(&v)
	return n + 1
}

func opCodeCopy(n int, s *ExecutionState) int {
	var (
		memOffset  = s.Stack.pop()
		codeOffset = s.Stack.pop()
		length     = s.Stack.pop()
	)
	if !length.IsUint64() {
		return s.exit(OutOfGas)
	}
	size := length.Uint64()
	off, ok := checkMemory(s, &memOffset, size)
	if !ok || !consumeCopyGas(s, size) {
		return s.exit(OutOfGas)
	}
	codeOff, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOff = math.MaxUint64
	}
	if size > 0 {
		s.Memory.Set(off, size, getData(s.Code, codeOff, size))
	}
	return n + 1
}

func opGasprice(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	s.Stack.push(&tx.GasPrice)
	return n + 1
}

func opExtCodeSize(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	addr := common.Address(x.Bytes20())
	if !accountAccessGas(s, addr) {
		return s.exit(OutOfGas)
	}
	x.SetUint64(uint64(s.Host.GetCodeSize(addr)))
	return n + 1
}

func opExtCodeCopy(n int, s *ExecutionState) int {
	var (
		addrInt    = s.Stack.pop()
		memOffset  = s.Stack.pop()
		codeOffset = s.Stack.pop()
		length     = s.Stack.pop()
	)
	addr := common.Address(addrInt.Bytes20())
	if !length.IsUint64() {
		return s.exit(OutOfGas)
	}
	size := length.Uint64()
	if !accountAccessGas(s, addr) {
		return s.exit(OutOfGas)
	}
	off, ok := checkMemory(s, &memOffset, size)
	if !ok || !consumeCopyGas(s, size) {
		return s.exit(OutOfGas)
	}
	if size > 0 {
		buf := s.Memory.GetPtr(off, size)
		for i := range buf {
			buf[i] = 0
		}
		if codeOff, overflow := codeOffset.Uint64WithOverflow(); !overflow && codeOff <= math.MaxInt32 {
			s.Host.CopyCode(addr, int(codeOff), buf)
		}
	}
	return n + 1
}

func opExtCodeHash(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	addr := common.Address(x.Bytes20())
	if !accountAccessGas(s, addr) {
		return s.exit(OutOfGas)
	}
	hash := s.Host.GetCodeHash(addr)
	x.SetBytes(hash.Bytes())
	return n + 1
}

func opReturnDataSize(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(uint64(len(s.ReturnData)))
	s.Stack.push(&v)
	return n + 1
}

func opReturnDataCopy(n int, s *ExecutionState) int {
	var (
		memOffset  = s.Stack.pop()
		dataOffset = s.Stack.pop()
		length     = s.Stack.pop()
	)
	dataOff, overflow := dataOffset.Uint64WithOverflow()
	if overflow || !length.IsUint64() {
		return s.exit(InvalidMemoryAccess)
	}
	size := length.Uint64()
	end := dataOff + size
	if end < dataOff || end > uint64(len(s.ReturnData)) {
		return s.exit(InvalidMemoryAccess)
	}
	off, ok := checkMemory(s, &memOffset, size)
	if !ok || !consumeCopyGas(s, size) {
		return s.exit(OutOfGas)
	}
	if size > 0 {
		s.Memory.Set(off, size, s.ReturnData[dataOff:end])
	}
	return n + 1
}

func opBlockhash(n int, s *ExecutionState) int {
	num := s.Stack.peek()
	tx := s.Host.GetTxContext()
	var hash common.Hash
	if n64, overflow := num.Uint64WithOverflow(); !overflow && n64 <= math.MaxInt64 {
		upper := tx.Number
		lower := upper - 256
		if lower < 0 {
			lower = 0
		}
		if b := int64(n64); b >= lower && b < upper {
			hash = s.Host.GetBlockHash(b)
		}
	}
	num.SetBytes(hash.Bytes())
	return n + 1
}

func opCoinbase(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	var v uint256.Int
	v.SetBytes(tx.Coinbase.Bytes())
	s.Stack.push(&v)
	return n + 1
}

func opTimestamp(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	var v uint256.Int
	v.SetUint64(uint64(tx.Timestamp))
	s.Stack.push(&v)
	return n + 1
}

func opNumber(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	var v uint256.Int
	v.SetUint64(uint64(tx.Number))
	s.Stack.push(&v)
	return n + 1
}

func opPrevRandao(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	s.Stack.push(&tx.PrevRandao)
	return n + 1
}

func opGasLimit(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	var v uint256.Int
	v.SetUint64(uint64(tx.GasLimit))
	s.Stack.push(&v)
	return n + 1
}

func opChainID(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	s.Stack.push(&tx.ChainID)
	return n + 1
}

func opSelfBalance(n int, s *ExecutionState) int {
	balance := s.Host.GetBalance(s.Msg.Recipient)
	s.Stack.push(&balance)
	return n + 1
}

func opBaseFee(n int, s *ExecutionState) int {
	tx := s.Host.GetTxContext()
	s.Stack.push(&tx.BaseFee)
	return n + 1
}

func opPop(n int, s *ExecutionState) int {
	s.Stack.pop()
	return n + 1
}

func opMload(n int, s *ExecutionState) int {
	v := s.Stack.peek()
	off, ok := checkMemory(s, v, 32)
	if !ok {
		return s.exit(OutOfGas)
	}
	v.SetBytes(s.Memory.GetPtr(off, 32))
	return n + 1
}

func opMstore(n int, s *ExecutionState) int {
	mStart, val := s.Stack.pop(), s.Stack.pop()
	off, ok := checkMemory(s, &mStart, 32)
	if !ok {
		return s.exit(OutOfGas)
	}
	s.Memory.Set32(off, &val)
	return n + 1
}

func opMstore8(n int, s *ExecutionState) int {
	off256, val := s.Stack.pop(), s.Stack.pop()
	off, ok := checkMemory(s, &off256, 1)
	if !ok {
		return s.exit(OutOfGas)
	}
	s.Memory.store[off] = byte(val.Uint64())
	return n + 1
}

func opSload(n int, s *ExecutionState) int {
	x := s.Stack.peek()
	key := common.Hash(x.Bytes32())
	if s.Revision >= Berlin && s.Host.AccessStorage(s.Msg.Recipient, key) == ColdAccess {
		s.GasLeft -= int64(params.ColdSloadCostEIP2929 - params.WarmStorageReadCostEIP2929)
		if s.GasLeft < 0 {
			return s.exit(OutOfGas)
		}
	}
	value := s.Host.GetStorage(s.Msg.Recipient, key)
	x.SetBytes(value.Bytes())
	return n + 1
}

func opSstore(n int, s *ExecutionState) int {
	if s.Msg.Static {
		return s.exit(StaticModeViolation)
	}
	// EIP-2200 gas sentry: the store must leave more than the call stipend.
	if s.Revision >= Istanbul && trueGasLeft(n, s) <= int64(params.CallStipend) {
		return s.exit(OutOfGas)
	}
	keyInt, valInt := s.Stack.pop(), s.Stack.pop()
	key := common.Hash(keyInt.Bytes32())
	if s.Revision >= Berlin && s.Host.AccessStorage(s.Msg.Recipient, key) == ColdAccess {
		s.GasLeft -= int64(params.ColdSloadCostEIP2929)
		if s.GasLeft < 0 {
			return s.exit(OutOfGas)
		}
	}
	status := s.Host.SetStorage(s.Msg.Recipient, key, common.Hash(valInt.Bytes32()))
	cost, refund := sstoreCostRefund(s.Revision, status)
	s.GasLeft -= cost
	if s.GasLeft < 0 {
		return s.exit(OutOfGas)
	}
	s.GasRefund += refund
	return n + 1
}

func opJump(n int, s *ExecutionState) int {
	dst := s.Stack.pop()
	idx := findJumpdest(s.analysis, &dst)
	if idx < 0 {
		return s.exit(BadJumpDestination)
	}
	return idx
}

func opJumpi(n int, s *ExecutionState) int {
	dst, cond := s.Stack.pop(), s.Stack.pop()
	if cond.IsZero() {
		return n + 1
	}
	idx := findJumpdest(s.analysis, &dst)
	if idx < 0 {
		return s.exit(BadJumpDestination)
	}
	return idx
}

func opPc(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(s.analysis.instrs[n].arg)
	s.Stack.push(&v)
	return n + 1
}

func opMsize(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(uint64(s.Memory.Len()))
	s.Stack.push(&v)
	return n + 1
}

func opGas(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(uint64(trueGasLeft(n, s)))
	s.Stack.push(&v)
	return n + 1
}

func opPush0(n int, s *ExecutionState) int {
	var v uint256.Int
	s.Stack.push(&v)
	return n + 1
}

// opSmallPush pushes an immediate of up to 8 bytes, pre-packed into the arg
// slot by the analyzer.
func opSmallPush(n int, s *ExecutionState) int {
	var v uint256.Int
	v.SetUint64(s.analysis.instrs[n].arg)
	s.Stack.push(&v)
	return n + 1
}

// makeLargePush builds the executor for PUSH9..PUSH32. The arg slot holds
// the immediate's start offset in the original code; bytes past the end of
// the code read as zero.
func makeLargePush(size int) instrFn {
	return func(n int, s *ExecutionState) int {
		start := int(s.analysis.instrs[n].arg)
		end := start + size
		if end > len(s.Code) {
			end = len(s.Code)
		}
		var buf [32]byte
		b := buf[:size]
		if start < end {
			copy(b, s.Code[start:end])
		}
		var v uint256.Int
		v.SetBytes(b)
		s.Stack.push(&v)
		return n + 1
	}
}

func makeDup(size int) instrFn {
	return func(n int, s *ExecutionState) int {
		s.Stack.dup(size)
		return n + 1
	}
}

func makeSwap(size int) instrFn {
	// switch n + 1 otherwise n would be swapped with n
	size++
	return func(n int, s *ExecutionState) int {
		s.Stack.swap(size)
		return n + 1
	}
}

func makeLog(topicCount int) instrFn {
	return func(n int, s *ExecutionState) int {
		if s.Msg.Static {
			return s.exit(StaticModeViolation)
		}
		offset, length := s.Stack.pop(), s.Stack.pop()
		if !length.IsUint64() {
			return s.exit(OutOfGas)
		}
		size := length.Uint64()
		off, ok := checkMemory(s, &offset, size)
		if !ok {
			return s.exit(OutOfGas)
		}
		s.GasLeft -= int64(size) * int64(params.LogDataGas)
		if s.GasLeft < 0 {
			return s.exit(OutOfGas)
		}
		topics := make([]common.Hash, topicCount)
		for i := 0; i < topicCount; i++ {
			t := s.Stack.pop()
			topics[i] = common.Hash(t.Bytes32())
		}
		s.Host.EmitLog(s.Msg.Recipient, topics, s.Memory.GetCopy(off, size))
		return n + 1
	}
}

// makeCall builds the executors of the CALL family. STATICCALL is a CALL
// with the static flag raised.
func makeCall(kind CallKind, static bool) instrFn {
	hasValueArg := (kind == CallMsg && !static) || kind == CallCodeMsg

	return func(n int, s *ExecutionState) int {
		gasArg := s.Stack.pop()
		dst := s.Stack.pop()
		var value uint256.Int
		if hasValueArg {
			value = s.Stack.pop()
		}
		var (
			inOffset  = s.Stack.pop()
			inSize    = s.Stack.pop()
			outOffset = s.Stack.pop()
			outSize   = s.Stack.pop()
		)
		addr := common.Address(dst.Bytes20())

		if s.Msg.Static && kind == CallMsg && !static && !value.IsZero() {
			return s.exit(StaticModeViolation)
		}
		if !accountAccessGas(s, addr) {
			return s.exit(OutOfGas)
		}
		if !inSize.IsUint64() || !outSize.IsUint64() {
			return s.exit(OutOfGas)
		}
		inOff, ok := checkMemory(s, &inOffset, inSize.Uint64())
		if !ok {
			return s.exit(OutOfGas)
		}
		outOff, ok := checkMemory(s, &outOffset, outSize.Uint64())
		if !ok {
			return s.exit(OutOfGas)
		}

		if !value.IsZero() {
			s.GasLeft -= int64(params.CallValueTransferGas)
		}
		if kind == CallMsg && !static {
			// New account charge: unconditional before Spurious Dragon,
			// only for value-bearing calls afterwards.
			chargeNew := !s.Host.AccountExists(addr) &&
				(s.Revision < SpuriousDragon || !value.IsZero())
			if chargeNew {
				s.GasLeft -= int64(params.CallNewAccountGas)
			}
		}
		if s.GasLeft < 0 {
			return s.exit(OutOfGas)
		}

		gasLeft := trueGasLeft(n, s)
		gas := int64(math.MaxInt64)
		if v, overflow := gasArg.Uint64WithOverflow(); !overflow && v <= math.MaxInt64 {
			gas = int64(v)
		}
		if s.Revision >= TangerineWhistle {
			// Forward at most all but one 64th of the remaining gas.
			if limit := gasLeft - gasLeft/64; gas > limit {
				gas = limit
			}
		} else if gas > gasLeft {
			return s.exit(OutOfGas)
		}

		s.ReturnData = nil
		if s.Msg.Depth >= params.CallCreateDepth {
			var zero uint256.Int
			s.Stack.push(&zero)
			return n + 1
		}
		if !value.IsZero() {
			balance := s.Host.GetBalance(s.Msg.Recipient)
			if balance.Lt(&value) {
				var zero uint256.Int
				s.Stack.push(&zero)
				return n + 1
			}
		}

		s.GasLeft -= gas
		childGas := gas
		if !value.IsZero() {
			childGas += int64(params.CallStipend)
		}

		child := Message{
			Kind:        kind,
			Static:      static || s.Msg.Static,
			Depth:       s.Msg.Depth + 1,
			Gas:         childGas,
			Input:       s.Memory.GetCopy(inOff, inSize.Uint64()),
			CodeAddress: addr,
		}
		switch kind {
		case CallMsg:
			child.Recipient = addr
			child.Sender = s.Msg.Recipient
			child.Value = value
		case CallCodeMsg:
			child.Recipient = s.Msg.Recipient
			child.Sender = s.Msg.Recipient
			child.Value = value
		case DelegateCallMsg:
			child.Recipient = s.Msg.Recipient
			child.Sender = s.Msg.Sender
			child.Value = s.Msg.Value
		}

		res := s.Host.Call(child)

		s.ReturnData = res.Output
		if copySize := min64(outSize.Uint64(), uint64(len(res.Output))); copySize > 0 {
			s.Memory.Set(outOff, copySize, res.Output)
		}
		s.GasLeft += res.GasLeft
		s.GasRefund += res.GasRefund

		var ret uint256.Int
		if res.Status == Success {
			ret.SetOne()
		}
		s.Stack.push(&ret)
		return n + 1
	}
}

// makeCreate builds the CREATE and CREATE2 executors.
func makeCreate(kind CallKind) instrFn {
	return func(n int, s *ExecutionState) int {
		if s.Msg.Static {
			return s.exit(StaticModeViolation)
		}
		value := s.Stack.pop()
		inOffset := s.Stack.pop()
		inSize := s.Stack.pop()
		var salt common.Hash
		if kind == Create2Msg {
			saltInt := s.Stack.pop()
			salt = common.Hash(saltInt.Bytes32())
		}
		if !inSize.IsUint64() {
			return s.exit(OutOfGas)
		}
		inOff, ok := checkMemory(s, &inOffset, inSize.Uint64())
		if !ok {
			return s.exit(OutOfGas)
		}
		if kind == Create2Msg {
			s.GasLeft -= int64(toWordSize(inSize.Uint64()) * params.Keccak256WordGas)
			if s.GasLeft < 0 {
				return s.exit(OutOfGas)
			}
		}

		s.ReturnData = nil
		if s.Msg.Depth >= params.CallCreateDepth {
			var zero uint256.Int
			s.Stack.push(&zero)
			return n + 1
		}
		if !value.IsZero() {
			balance := s.Host.GetBalance(s.Msg.Recipient)
			if balance.Lt(&value) {
				var zero uint256.Int
				s.Stack.push(&zero)
				return n + 1
			}
		}

		gasLeft := trueGasLeft(n, s)
		gas := gasLeft
		if s.Revision >= TangerineWhistle {
			gas = gasLeft - gasLeft/64
		}
		s.GasLeft -= gas

		child := Message{
			Kind:   kind,
			Depth:  s.Msg.Depth + 1,
			Gas:    gas,
			Sender: s.Msg.Recipient,
			Input:  s.Memory.GetCopy(inOff, inSize.Uint64()),
			Value:  value,
			Salt:   salt,
		}
		res := s.Host.Call(child)

		s.GasLeft += res.GasLeft
		s.GasRefund += res.GasRefund
		if res.Status == Revert {
			s.ReturnData = res.Output
		}

		var ret uint256.Int
		if res.Status == Success {
			ret.SetBytes(res.CreateAddress.Bytes())
		}
		s.Stack.push(&ret)
		return n + 1
	}
}

func opReturn(n int, s *ExecutionState) int {
	offset, size := s.Stack.pop(), s.Stack.pop()
	if !size.IsUint64() {
		return s.exit(OutOfGas)
	}
	off, ok := checkMemory(s, &offset, size.Uint64())
	if !ok {
		return s.exit(OutOfGas)
	}
	s.outputOffset, s.outputSize = off, size.Uint64()
	return s.exit(Success)
}

func opRevert(n int, s *ExecutionState) int {
	offset, size := s.Stack.pop(), s.Stack.pop()
	if !size.IsUint64() {
		return s.exit(OutOfGas)
	}
	off, ok := checkMemory(s, &offset, size.Uint64())
	if !ok {
		return s.exit(OutOfGas)
	}
	s.outputOffset, s.outputSize = off, size.Uint64()
	return s.exit(Revert)
}

func opSelfdestruct(n int, s *ExecutionState) int {
	if s.Msg.Static {
		return s.exit(StaticModeViolation)
	}
	dst := s.Stack.pop()
	beneficiary := common.Address(dst.Bytes20())
	if s.Revision >= Berlin && s.Host.AccessAccount(beneficiary) == ColdAccess {
		s.GasLeft -= int64(params.ColdAccountAccessCostEIP2929)
		if s.GasLeft < 0 {
			return s.exit(OutOfGas)
		}
	}
	if s.Revision >= TangerineWhistle && !s.Host.AccountExists(beneficiary) {
		balance := s.Host.GetBalance(s.Msg.Recipient)
		if s.Revision == TangerineWhistle || !balance.IsZero() {
			s.GasLeft -= int64(params.CallNewAccountGas)
			if s.GasLeft < 0 {
				return s.exit(OutOfGas)
			}
		}
	}
	if s.Revision < London {
		s.GasRefund += int64(params.SelfdestructRefundGas)
	}
	s.Host.Selfdestruct(s.Msg.Recipient, beneficiary)
	return s.exit(Success)
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
