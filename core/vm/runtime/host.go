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

package runtime

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/flarevm/flarevm/core/vm"
	"github.com/flarevm/flarevm/params"
)

// Log is a log record emitted during execution.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

type account struct {
	balance uint256.Int
	nonce   uint64
	code    []byte
	storage map[common.Hash]common.Hash
}

func (a *account) copy() *account {
	cpy := &account{
		balance: a.balance,
		nonce:   a.nonce,
		code:    a.code,
		storage: make(map[common.Hash]common.Hash, len(a.storage)),
	}
	for k, v := range a.storage {
		cpy.storage[k] = v
	}
	return cpy
}

type storageKey struct {
	addr common.Address
	key  common.Hash
}

// State is a self-contained in-memory world state implementing vm.Host.
// Nested calls and creates recurse back into the interpreter against the
// same state, with journal-free whole-state snapshots for reverts. It is
// meant for tests and tooling, not consensus.
type State struct {
	vm  *vm.VM
	rev vm.Revision
	tx  vm.TxContext

	accounts map[common.Address]*account
	Logs     []Log

	// original holds the value each slot had when the transaction started,
	// recorded lazily on first write. Drives the SSTORE status returned to
	// the interpreter and thereby net gas metering.
	original map[storageKey]common.Hash

	accessedAccounts map[common.Address]struct{}
	accessedStorage  map[storageKey]struct{}

	// BlockHashFn overrides BLOCKHASH results; nil yields a synthetic hash.
	BlockHashFn func(number int64) common.Hash
}

// NewState returns an empty state for the given revision and transaction
// context.
func NewState(rev vm.Revision, tx vm.TxContext) *State {
	return &State{
		vm:               vm.NewVM(),
		rev:              rev,
		tx:               tx,
		accounts:         make(map[common.Address]*account),
		original:         make(map[storageKey]common.Hash),
		accessedAccounts: make(map[common.Address]struct{}),
		accessedStorage:  make(map[storageKey]struct{}),
	}
}

func (s *State) get(addr common.Address) *account {
	if acc, ok := s.accounts[addr]; ok {
		return acc
	}
	acc := &account{storage: make(map[common.Hash]common.Hash)}
	s.accounts[addr] = acc
	return acc
}

// CreateAccount installs code and balance at addr, overwriting anything
// already there.
func (s *State) CreateAccount(addr common.Address, code []byte, balance *uint256.Int) {
	acc := s.get(addr)
	acc.code = code
	if balance != nil {
		acc.balance = *balance
	}
}

// SetBalance sets the balance of addr.
func (s *State) SetBalance(addr common.Address, balance *uint256.Int) {
	s.get(addr).balance = *balance
}

// GetCode returns the code stored at addr.
func (s *State) GetCode(addr common.Address) []byte {
	if acc, ok := s.accounts[addr]; ok {
		return acc.code
	}
	return nil
}

func (s *State) snapshot() map[common.Address]*account {
	cpy := make(map[common.Address]*account, len(s.accounts))
	for addr, acc := range s.accounts {
		cpy[addr] = acc.copy()
	}
	return cpy
}

// AccountExists implements vm.Host.
func (s *State) AccountExists(addr common.Address) bool {
	acc, ok := s.accounts[addr]
	if !ok {
		return false
	}
	return acc.nonce > 0 || len(acc.code) > 0 || !acc.balance.IsZero()
}

// GetStorage implements vm.Host.
func (s *State) GetStorage(addr common.Address, key common.Hash) common.Hash {
	if acc, ok := s.accounts[addr]; ok {
		return acc.storage[key]
	}
	return common.Hash{}
}

// SetStorage implements vm.Host.
func (s *State) SetStorage(addr common.Address, key, value common.Hash) vm.StorageStatus {
	acc := s.get(addr)
	current := acc.storage[key]

	sk := storageKey{addr, key}
	original, dirty := s.original[sk]
	if !dirty {
		original = current
		s.original[sk] = original
	}

	acc.storage[key] = value

	switch {
	case current == value:
		return vm.StorageUnchanged
	case current != original:
		return vm.StorageModifiedAgain
	case original == (common.Hash{}):
		return vm.StorageAdded
	case value == (common.Hash{}):
		return vm.StorageDeleted
	default:
		return vm.StorageModified
	}
}

// GetBalance implements vm.Host.
func (s *State) GetBalance(addr common.Address) uint256.Int {
	if acc, ok := s.accounts[addr]; ok {
		return acc.balance
	}
	return uint256.Int{}
}

// GetCodeSize implements vm.Host.
func (s *State) GetCodeSize(addr common.Address) int {
	return len(s.GetCode(addr))
}

// GetCodeHash implements vm.Host.
func (s *State) GetCodeHash(addr common.Address) common.Hash {
	if !s.AccountExists(addr) {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(s.GetCode(addr))
}

// CopyCode implements vm.Host.
func (s *State) CopyCode(addr common.Address, offset int, buf []byte) int {
	code := s.GetCode(addr)
	if offset >= len(code) {
		return 0
	}
	return copy(buf, code[offset:])
}

// Selfdestruct implements vm.Host.
func (s *State) Selfdestruct(addr, beneficiary common.Address) {
	acc := s.get(addr)
	if addr != beneficiary {
		b := s.get(beneficiary)
		b.balance.Add(&b.balance, &acc.balance)
	}
	acc.balance.Clear()
	acc.code = nil
	for k := range acc.storage {
		delete(acc.storage, k)
	}
}

// GetTxContext implements vm.Host.
func (s *State) GetTxContext() vm.TxContext {
	return s.tx
}

// GetBlockHash implements vm.Host.
func (s *State) GetBlockHash(number int64) common.Hash {
	if s.BlockHashFn != nil {
		return s.BlockHashFn(number)
	}
	var n uint256.Int
	n.SetUint64(uint64(number))
	b := n.Bytes32()
	return crypto.Keccak256Hash(b[:])
}

// EmitLog implements vm.Host.
func (s *State) EmitLog(addr common.Address, topics []common.Hash, data []byte) {
	s.Logs = append(s.Logs, Log{Address: addr, Topics: topics, Data: data})
}

// AccessAccount implements vm.Host.
func (s *State) AccessAccount(addr common.Address) vm.AccessStatus {
	if _, ok := s.accessedAccounts[addr]; ok {
		return vm.WarmAccess
	}
	s.accessedAccounts[addr] = struct{}{}
	return vm.ColdAccess
}

// AccessStorage implements vm.Host.
func (s *State) AccessStorage(addr common.Address, key common.Hash) vm.AccessStatus {
	sk := storageKey{addr, key}
	if _, ok := s.accessedStorage[sk]; ok {
		return vm.WarmAccess
	}
	s.accessedStorage[sk] = struct{}{}
	return vm.ColdAccess
}

// Call implements vm.Host: it executes a nested message frame against this
// state and reverts all modifications the frame made unless it succeeded.
func (s *State) Call(msg vm.Message) vm.Result {
	if msg.Kind == vm.CreateMsg || msg.Kind == vm.Create2Msg {
		return s.create(msg)
	}

	before := s.snapshot()
	logMark := len(s.Logs)

	if !msg.Value.IsZero() && msg.Kind == vm.CallMsg {
		sender := s.get(msg.Sender)
		if sender.balance.Lt(&msg.Value) {
			return vm.Result{Status: vm.Failure}
		}
		sender.balance.Sub(&sender.balance, &msg.Value)
		recipient := s.get(msg.Recipient)
		recipient.balance.Add(&recipient.balance, &msg.Value)
	}

	code := s.GetCode(msg.CodeAddress)
	res := s.vm.Run(s, s.rev, &msg, code)

	if res.Status != vm.Success {
		s.accounts = before
		s.Logs = s.Logs[:logMark]
	}
	return res
}

func (s *State) create(msg vm.Message) vm.Result {
	sender := s.get(msg.Sender)
	if !msg.Value.IsZero() && sender.balance.Lt(&msg.Value) {
		return vm.Result{Status: vm.Failure}
	}

	var addr common.Address
	if msg.Kind == vm.Create2Msg {
		addr = crypto.CreateAddress2(msg.Sender, msg.Salt, crypto.Keccak256(msg.Input))
	} else {
		addr = crypto.CreateAddress(msg.Sender, sender.nonce)
	}
	sender.nonce++

	before := s.snapshot()
	logMark := len(s.Logs)

	sender = s.get(msg.Sender)
	sender.balance.Sub(&sender.balance, &msg.Value)
	created := s.get(addr)
	created.nonce = 1
	created.balance.Add(&created.balance, &msg.Value)

	initMsg := msg
	initMsg.Recipient = addr
	initMsg.CodeAddress = addr
	res := s.vm.Run(s, s.rev, &initMsg, msg.Input)

	if res.Status == vm.Success {
		depositGas := int64(params.CreateDataGas) * int64(len(res.Output))
		switch {
		case res.GasLeft < depositGas:
			res = vm.Result{Status: vm.OutOfGas}
		case len(res.Output) > params.MaxCodeSize && s.rev >= vm.SpuriousDragon:
			res = vm.Result{Status: vm.Failure}
		default:
			res.GasLeft -= depositGas
			s.get(addr).code = res.Output
			res.Output = nil
			res.CreateAddress = addr
		}
	}
	if res.Status != vm.Success && res.Status != vm.Revert {
		res.Output = nil
	}
	if res.Status != vm.Success {
		s.accounts = before
		s.Logs = s.Logs[:logMark]
	}
	return res
}
