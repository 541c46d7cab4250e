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
	"fmt"

	"github.com/flarevm/flarevm/params"
)

// operation is one entry of the revision-scoped opcode table: the executor
// plus the static metadata the analyzer aggregates per basic block.
type operation struct {
	execute     instrFn
	constantGas int16
	stackReq    int8 // number of stack items required
	stackChange int8 // net change of the stack height
}

// OpTable contains the instructions supported at a given revision. Tables are
// built once during package init and never mutated afterwards, so they are
// safe for unsynchronized concurrent reads.
type OpTable [256]operation

var (
	frontierInstructionSet         = newFrontierInstructionSet()
	homesteadInstructionSet        = newHomesteadInstructionSet()
	tangerineWhistleInstructionSet = newTangerineWhistleInstructionSet()
	spuriousDragonInstructionSet   = newSpuriousDragonInstructionSet()
	byzantiumInstructionSet        = newByzantiumInstructionSet()
	constantinopleInstructionSet   = newConstantinopleInstructionSet()
	istanbulInstructionSet         = newIstanbulInstructionSet()
	berlinInstructionSet           = newBerlinInstructionSet()
	londonInstructionSet           = newLondonInstructionSet()
	parisInstructionSet            = newParisInstructionSet()
	shanghaiInstructionSet         = newShanghaiInstructionSet()
)

// Table returns the opcode table for the given revision. The returned table
// must not be modified.
func Table(rev Revision) *OpTable {
	switch {
	case rev >= Shanghai:
		return &shanghaiInstructionSet
	case rev >= Paris:
		return &parisInstructionSet
	case rev >= London:
		return &londonInstructionSet
	case rev >= Berlin:
		return &berlinInstructionSet
	case rev >= Istanbul:
		return &istanbulInstructionSet
	case rev >= Constantinople:
		return &constantinopleInstructionSet
	case rev >= Byzantium:
		return &byzantiumInstructionSet
	case rev >= SpuriousDragon:
		return &spuriousDragonInstructionSet
	case rev >= TangerineWhistle:
		return &tangerineWhistleInstructionSet
	case rev >= Homestead:
		return &homesteadInstructionSet
	default:
		return &frontierInstructionSet
	}
}

func validate(tbl OpTable) OpTable {
	for i, op := range tbl {
		if op.execute == nil {
			panic(fmt.Sprintf("op %#x has no executor", i))
		}
	}
	return tbl
}

func newShanghaiInstructionSet() OpTable {
	tbl := newParisInstructionSet()
	tbl[PUSH0] = operation{opPush0, GasQuickStep, 0, 1}
	return validate(tbl)
}

func newParisInstructionSet() OpTable {
	// PREVRANDAO shares the DIFFICULTY slot; the executor reads the same
	// TxContext field either way, so the table is unchanged.
	tbl := newLondonInstructionSet()
	return validate(tbl)
}

func newLondonInstructionSet() OpTable {
	tbl := newBerlinInstructionSet()
	tbl[BASEFEE] = operation{opBaseFee, GasQuickStep, 0, 1}
	return validate(tbl)
}

// newBerlinInstructionSet applies the EIP-2929 warm costs to the state access
// instructions. The cold surcharges are applied by the executors based on the
// host-reported access status.
func newBerlinInstructionSet() OpTable {
	tbl := newIstanbulInstructionSet()
	warm := int16(params.WarmStorageReadCostEIP2929)
	tbl[BALANCE].constantGas = warm
	tbl[EXTCODESIZE].constantGas = warm
	tbl[EXTCODECOPY].constantGas = warm
	tbl[EXTCODEHASH].constantGas = warm
	tbl[SLOAD].constantGas = warm
	tbl[CALL].constantGas = warm
	tbl[CALLCODE].constantGas = warm
	tbl[DELEGATECALL].constantGas = warm
	tbl[STATICCALL].constantGas = warm
	return validate(tbl)
}

func newIstanbulInstructionSet() OpTable {
	tbl := newConstantinopleInstructionSet()
	tbl[BALANCE].constantGas = int16(params.BalanceGasEIP1884)
	tbl[SLOAD].constantGas = int16(params.SloadGasEIP1884)
	tbl[EXTCODEHASH].constantGas = int16(params.ExtcodeHashGasEIP1884)
	tbl[CHAINID] = operation{opChainID, GasQuickStep, 0, 1}
	tbl[SELFBALANCE] = operation{opSelfBalance, GasFastStep, 0, 1}
	return validate(tbl)
}

func newConstantinopleInstructionSet() OpTable {
	tbl := newByzantiumInstructionSet()
	tbl[SHL] = operation{opSHL, GasFastestStep, 2, -1}
	tbl[SHR] = operation{opSHR, GasFastestStep, 2, -1}
	tbl[SAR] = operation{opSAR, GasFastestStep, 2, -1}
	tbl[EXTCODEHASH] = operation{opExtCodeHash, int16(params.ExtcodeHashGasConstantinople), 1, 0}
	tbl[CREATE2] = operation{makeCreate(Create2Msg), int16(params.CreateGas), 4, -3}
	return validate(tbl)
}

func newByzantiumInstructionSet() OpTable {
	tbl := newSpuriousDragonInstructionSet()
	tbl[RETURNDATASIZE] = operation{opReturnDataSize, GasQuickStep, 0, 1}
	tbl[RETURNDATACOPY] = operation{opReturnDataCopy, GasFastestStep, 3, -3}
	tbl[STATICCALL] = operation{makeCall(CallMsg, true), int16(params.CallGasEIP150), 6, -5}
	tbl[REVERT] = operation{opRevert, 0, 2, -2}
	return validate(tbl)
}

// newSpuriousDragonInstructionSet only changes gas rules handled inside the
// executors (EXP byte cost, new account charges); the table itself matches
// Tangerine Whistle.
func newSpuriousDragonInstructionSet() OpTable {
	tbl := newTangerineWhistleInstructionSet()
	return validate(tbl)
}

// newTangerineWhistleInstructionSet applies the EIP-150 gas repricing of
// state access instructions.
func newTangerineWhistleInstructionSet() OpTable {
	tbl := newHomesteadInstructionSet()
	tbl[BALANCE].constantGas = int16(params.BalanceGasEIP150)
	tbl[SLOAD].constantGas = int16(params.SloadGasEIP150)
	tbl[EXTCODESIZE].constantGas = int16(params.ExtcodeSizeGasEIP150)
	tbl[EXTCODECOPY].constantGas = int16(params.ExtcodeCopyBaseEIP150)
	tbl[CALL].constantGas = int16(params.CallGasEIP150)
	tbl[CALLCODE].constantGas = int16(params.CallGasEIP150)
	tbl[DELEGATECALL].constantGas = int16(params.CallGasEIP150)
	tbl[SELFDESTRUCT].constantGas = int16(params.SelfdestructGasEIP150)
	return validate(tbl)
}

func newHomesteadInstructionSet() OpTable {
	tbl := newFrontierInstructionSet()
	tbl[DELEGATECALL] = operation{makeCall(DelegateCallMsg, false), int16(params.CallGasFrontier), 6, -5}
	return validate(tbl)
}

// newFrontierInstructionSet returns the baseline instruction table. Undefined
// opcodes carry the opUndefined executor so analysis always has an executor
// to emit; they fail lazily at execution time.
func newFrontierInstructionSet() OpTable {
	var tbl OpTable
	for i := range tbl {
		tbl[i] = operation{execute: opUndefined}
	}

	tbl[STOP] = operation{opStop, 0, 0, 0}
	tbl[ADD] = operation{opAdd, GasFastestStep, 2, -1}
	tbl[MUL] = operation{opMul, GasFastStep, 2, -1}
	tbl[SUB] = operation{opSub, GasFastestStep, 2, -1}
	tbl[DIV] = operation{opDiv, GasFastStep, 2, -1}
	tbl[SDIV] = operation{opSdiv, GasFastStep, 2, -1}
	tbl[MOD] = operation{opMod, GasFastStep, 2, -1}
	tbl[SMOD] = operation{opSmod, GasFastStep, 2, -1}
	tbl[ADDMOD] = operation{opAddmod, GasMidStep, 3, -2}
	tbl[MULMOD] = operation{opMulmod, GasMidStep, 3, -2}
	tbl[EXP] = operation{opExp, int16(params.ExpGas), 2, -1}
	tbl[SIGNEXTEND] = operation{opSignExtend, GasFastStep, 2, -1}

	tbl[LT] = operation{opLt, GasFastestStep, 2, -1}
	tbl[GT] = operation{opGt, GasFastestStep, 2, -1}
	tbl[SLT] = operation{opSlt, GasFastestStep, 2, -1}
	tbl[SGT] = operation{opSgt, GasFastestStep, 2, -1}
	tbl[EQ] = operation{opEq, GasFastestStep, 2, -1}
	tbl[ISZERO] = operation{opIszero, GasFastestStep, 1, 0}
	tbl[AND] = operation{opAnd, GasFastestStep, 2, -1}
	tbl[OR] = operation{opOr, GasFastestStep, 2, -1}
	tbl[XOR] = operation{opXor, GasFastestStep, 2, -1}
	tbl[NOT] = operation{opNot, GasFastestStep, 1, 0}
	tbl[BYTE] = operation{opByte, GasFastestStep, 2, -1}

	tbl[SHA3] = operation{opSha3, int16(params.Keccak256Gas), 2, -1}

	tbl[ADDRESS] = operation{opAddress, GasQuickStep, 0, 1}
	tbl[BALANCE] = operation{opBalance, int16(params.BalanceGasFrontier), 1, 0}
	tbl[ORIGIN] = operation{opOrigin, GasQuickStep, 0, 1}
	tbl[CALLER] = operation{opCaller, GasQuickStep, 0, 1}
	tbl[CALLVALUE] = operation{opCallValue, GasQuickStep, 0, 1}
	tbl[CALLDATALOAD] = operation{opCallDataLoad, GasFastestStep, 1, 0}
	tbl[CALLDATASIZE] = operation{opCallDataSize, GasQuickStep, 0, 1}
	tbl[CALLDATACOPY] = operation{opCallDataCopy, GasFastestStep, 3, -3}
	tbl[CODESIZE] = operation{opCodeSize, GasQuickStep, 0, 1}
	tbl[CODECOPY] = operation{opCodeCopy, GasFastestStep, 3, -3}
	tbl[GASPRICE] = operation{opGasprice, GasQuickStep, 0, 1}
	tbl[EXTCODESIZE] = operation{opExtCodeSize, int16(params.ExtcodeSizeGasFrontier), 1, 0}
	tbl[EXTCODECOPY] = operation{opExtCodeCopy, int16(params.ExtcodeCopyBaseFrontier), 4, -4}

	tbl[BLOCKHASH] = operation{opBlockhash, int16(params.BlockhashGas), 1, 0}
	tbl[COINBASE] = operation{opCoinbase, GasQuickStep, 0, 1}
	tbl[TIMESTAMP] = operation{opTimestamp, GasQuickStep, 0, 1}
	tbl[NUMBER] = operation{opNumber, GasQuickStep, 0, 1}
	tbl[PREVRANDAO] = operation{opPrevRandao, GasQuickStep, 0, 1}
	tbl[GASLIMIT] = operation{opGasLimit, GasQuickStep, 0, 1}

	tbl[POP] = operation{opPop, GasQuickStep, 1, -1}
	tbl[MLOAD] = operation{opMload, GasFastestStep, 1, 0}
	tbl[MSTORE] = operation{opMstore, GasFastestStep, 2, -2}
	tbl[MSTORE8] = operation{opMstore8, GasFastestStep, 2, -2}
	tbl[SLOAD] = operation{opSload, int16(params.SloadGasFrontier), 1, 0}
	tbl[SSTORE] = operation{opSstore, 0, 2, -2}
	tbl[JUMP] = operation{opJump, GasMidStep, 1, -1}
	tbl[JUMPI] = operation{opJumpi, GasSlowStep, 2, -2}
	tbl[PC] = operation{opPc, GasQuickStep, 0, 1}
	tbl[MSIZE] = operation{opMsize, GasQuickStep, 0, 1}
	tbl[GAS] = operation{opGas, GasQuickStep, 0, 1}
	// The JUMPDEST slot doubles as the begin-block marker executor.
	tbl[JUMPDEST] = operation{opBeginBlock, int16(params.JumpdestGas), 0, 0}

	for i := 0; i < 8; i++ {
		tbl[PUSH1+OpCode(i)] = operation{opSmallPush, GasFastestStep, 0, 1}
	}
	for i := 8; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = operation{makeLargePush(i + 1), GasFastestStep, 0, 1}
	}
	for i := 0; i < 16; i++ {
		tbl[DUP1+OpCode(i)] = operation{makeDup(i + 1), GasFastestStep, int8(i + 1), 1}
	}
	for i := 0; i < 16; i++ {
		tbl[SWAP1+OpCode(i)] = operation{makeSwap(i + 1), GasFastestStep, int8(i + 2), 0}
	}
	for i := 0; i < 5; i++ {
		cost := int16(params.LogGas) + int16(i)*int16(params.LogTopicGas)
		tbl[LOG0+OpCode(i)] = operation{makeLog(i), cost, int8(i + 2), int8(-(i + 2))}
	}

	tbl[CREATE] = operation{makeCreate(CreateMsg), int16(params.CreateGas), 3, -2}
	tbl[CALL] = operation{makeCall(CallMsg, false), int16(params.CallGasFrontier), 7, -6}
	tbl[CALLCODE] = operation{makeCall(CallCodeMsg, false), int16(params.CallGasFrontier), 7, -6}
	tbl[RETURN] = operation{opReturn, 0, 2, -2}
	tbl[INVALID] = operation{opInvalid, 0, 0, 0}
	tbl[SELFDESTRUCT] = operation{opSelfdestruct, 0, 1, -1}

	return validate(tbl)
}
