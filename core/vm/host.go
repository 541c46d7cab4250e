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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CallKind is the kind of a call-like message.
type CallKind int

const (
	CallMsg CallKind = iota
	DelegateCallMsg
	CallCodeMsg
	CreateMsg
	Create2Msg
)

// AccessStatus is the result of touching an account or storage slot under the
// EIP-2929 access rules.
type AccessStatus int

const (
	ColdAccess AccessStatus = iota
	WarmAccess
)

// StorageStatus describes the effect of an SSTORE on a storage slot, used by
// the interpreter to pick the gas cost and refund of the store.
type StorageStatus int

const (
	StorageUnchanged StorageStatus = iota
	StorageModified
	StorageModifiedAgain
	StorageAdded
	StorageDeleted
)

// Message is a single call frame request. Nested calls and creates produced
// during execution are handed back to the host as new messages.
type Message struct {
	Kind        CallKind
	Static      bool
	Depth       int
	Gas         int64
	Recipient   common.Address
	Sender      common.Address
	Input       []byte
	Value       uint256.Int
	Salt        common.Hash    // CREATE2 only
	CodeAddress common.Address // address the executed code was loaded from
}

// TxContext carries the transaction- and block-level values visible to
// executing bytecode.
type TxContext struct {
	GasPrice   uint256.Int
	Origin     common.Address
	Coinbase   common.Address
	Number     int64
	Timestamp  int64
	GasLimit   int64
	PrevRandao uint256.Int // block difficulty before the Paris revision
	ChainID    uint256.Int
	BaseFee    uint256.Int
}

// Result is the outcome of executing a message.
type Result struct {
	Status         StatusCode
	GasLeft        int64
	GasRefund      int64
	Output         []byte
	CreateAddress  common.Address // populated for create messages
	MemoryConsumed int            // peak memory allocated by the frame
}

// Host provides the account, storage and call facilities the interpreter
// needs. A Host implementation owns all chain state; the interpreter never
// touches state except through this interface. Implementations must be usable
// for the full duration of a call; the interpreter does not retain the host
// past Execute.
type Host interface {
	// AccountExists reports whether the given account exists. Used for the
	// CALL new-account gas charge.
	AccountExists(addr common.Address) bool

	// GetStorage loads a storage slot of an account.
	GetStorage(addr common.Address, key common.Hash) common.Hash

	// SetStorage stores a value and reports how the slot changed.
	SetStorage(addr common.Address, key, value common.Hash) StorageStatus

	// GetBalance returns the balance of the given account.
	GetBalance(addr common.Address) uint256.Int

	// GetCodeSize returns the size of the code stored at addr.
	GetCodeSize(addr common.Address) int

	// GetCodeHash returns the hash of the code stored at addr, or the zero
	// hash for empty accounts.
	GetCodeHash(addr common.Address) common.Hash

	// CopyCode copies code at addr starting at offset into buf, returning
	// the number of bytes copied.
	CopyCode(addr common.Address, offset int, buf []byte) int

	// Selfdestruct schedules the destruction of addr, sending its remaining
	// balance to beneficiary.
	Selfdestruct(addr, beneficiary common.Address)

	// GetTxContext returns the transaction and block context.
	GetTxContext() TxContext

	// GetBlockHash returns the hash of the given block number, or the zero
	// hash if unavailable.
	GetBlockHash(number int64) common.Hash

	// EmitLog records a log entry.
	EmitLog(addr common.Address, topics []common.Hash, data []byte)

	// AccessAccount marks addr as accessed and reports whether it was warm.
	// Pre-Berlin revisions never consult this.
	AccessAccount(addr common.Address) AccessStatus

	// AccessStorage marks a storage slot as accessed and reports whether it
	// was warm. Pre-Berlin revisions never consult this.
	AccessStorage(addr common.Address, key common.Hash) AccessStatus

	// Call executes a nested message (call or create) and returns its
	// result. The host is responsible for loading the callee code, value
	// transfer and state snapshotting/rollback.
	Call(msg Message) Result
}
