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

// Package params holds the protocol gas schedule and execution limits.
package params

const (
	StackLimit      = 1024  // Maximum size of the VM stack allowed.
	MaxCodeSize     = 24576 // Maximum bytecode to permit for a contract.
	CallCreateDepth = 1024  // Maximum depth of call/create stack.

	MemoryGas    uint64 = 3   // Paid for every word of memory expansion.
	QuadCoeffDiv uint64 = 512 // Divisor of the quadratic particle of the memory cost equation.
	CopyGas      uint64 = 3   // Paid per word copied by *COPY operations, rounded up.

	JumpdestGas uint64 = 1 // Once per JUMPDEST operation.

	Keccak256Gas     uint64 = 30 // Once per KECCAK256 operation.
	Keccak256WordGas uint64 = 6  // Once per word of the KECCAK256 operation's data.

	ExpGas          uint64 = 10 // Once per EXP instruction.
	ExpByteFrontier uint64 = 10 // Per byte of the EXP exponent, before Spurious Dragon.
	ExpByteEIP158   uint64 = 50 // Per byte of the EXP exponent, since Spurious Dragon.

	BlockhashGas uint64 = 20 // Once per BLOCKHASH operation.

	LogGas      uint64 = 375 // Per LOG* operation.
	LogTopicGas uint64 = 375 // Multiplied by the * of the LOG*, per LOG transaction.
	LogDataGas  uint64 = 8   // Per byte in a LOG* operation's data.

	SloadGasFrontier uint64 = 50  // SLOAD before Tangerine Whistle.
	SloadGasEIP150   uint64 = 200 // SLOAD since Tangerine Whistle (EIP-150).
	SloadGasEIP1884  uint64 = 800 // SLOAD since Istanbul (EIP-1884).

	SstoreSetGas   uint64 = 20000 // Once per SSTORE operation from clean zero.
	SstoreResetGas uint64 = 5000  // Once per SSTORE operation from clean non-zero.

	SstoreClearsScheduleRefundEIP2200 uint64 = 15000 // Refund for clearing a storage slot, up to London.
	SstoreClearsScheduleRefundEIP3529 uint64 = 4800  // Reduced clearing refund since London (EIP-3529).

	BalanceGasFrontier uint64 = 20  // BALANCE before Tangerine Whistle.
	BalanceGasEIP150   uint64 = 400 // BALANCE since Tangerine Whistle.
	BalanceGasEIP1884  uint64 = 700 // BALANCE since Istanbul.

	ExtcodeSizeGasFrontier       uint64 = 20  // EXTCODESIZE before Tangerine Whistle.
	ExtcodeSizeGasEIP150         uint64 = 700 // EXTCODESIZE since Tangerine Whistle.
	ExtcodeCopyBaseFrontier      uint64 = 20
	ExtcodeCopyBaseEIP150        uint64 = 700
	ExtcodeHashGasConstantinople uint64 = 400 // EXTCODEHASH at Constantinople.
	ExtcodeHashGasEIP1884        uint64 = 700 // EXTCODEHASH since Istanbul.

	CallGasFrontier      uint64 = 40    // Once per CALL family operation, before Tangerine Whistle.
	CallGasEIP150        uint64 = 700   // Once per CALL family operation, since Tangerine Whistle.
	CallValueTransferGas uint64 = 9000  // Paid for CALL when the value transfer is non-zero.
	CallNewAccountGas    uint64 = 25000 // Paid for CALL when the destination address didn't exist prior.
	CallStipend          uint64 = 2300  // Free gas given at beginning of call when transferring value.

	CreateGas     uint64 = 32000 // Once per CREATE/CREATE2 operation.
	CreateDataGas uint64 = 200   // Per byte of deployed code, paid by the create frame.

	SelfdestructGasEIP150 uint64 = 5000  // SELFDESTRUCT since Tangerine Whistle.
	SelfdestructRefundGas uint64 = 24000 // Refunded following a selfdestruct operation, up to London.

	// EIP-2929 (Berlin) access list costs.
	ColdAccountAccessCostEIP2929 uint64 = 2600
	ColdSloadCostEIP2929         uint64 = 2100
	WarmStorageReadCostEIP2929   uint64 = 100
)
