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
	"github.com/holiman/uint256"

	"github.com/flarevm/flarevm/core/vm"
)

// Config is the runtime configuration of an ad-hoc execution.
type Config struct {
	// Revision selects the instruction set. The zero value is upgraded to
	// the latest revision; build the State directly for Frontier runs.
	Revision    vm.Revision
	Origin      common.Address
	Recipient   common.Address
	GasLimit    int64
	GasPrice    uint256.Int
	Value       uint256.Int
	Coinbase    common.Address
	BlockNumber int64
	Timestamp   int64
	ChainID     uint256.Int
	BaseFee     uint256.Int
	State       *State
}

func (cfg *Config) setDefaults() {
	if cfg.Revision == 0 {
		cfg.Revision = vm.LatestRevision
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 10_000_000
	}
	if cfg.Recipient == (common.Address{}) {
		cfg.Recipient = common.BytesToAddress([]byte{0xfa})
	}
	if cfg.State == nil {
		cfg.State = NewState(cfg.Revision, vm.TxContext{
			Origin:      cfg.Origin,
			GasPrice:    cfg.GasPrice,
			Coinbase:    cfg.Coinbase,
			Number:      cfg.BlockNumber,
			Timestamp:   cfg.Timestamp,
			GasLimit:    cfg.GasLimit,
			ChainID:     cfg.ChainID,
			BaseFee:     cfg.BaseFee,
		})
	}
}

// Execute runs code with input against a fresh (or supplied) state and
// returns the outcome together with the state, for inspection of storage
// and logs.
func Execute(code, input []byte, cfg *Config) (vm.Result, *State) {
	if cfg == nil {
		cfg = new(Config)
	}
	cfg.setDefaults()

	state := cfg.State
	state.CreateAccount(cfg.Recipient, code, nil)

	msg := vm.Message{
		Kind:        vm.CallMsg,
		Gas:         cfg.GasLimit,
		Recipient:   cfg.Recipient,
		Sender:      cfg.Origin,
		Input:       input,
		Value:       cfg.Value,
		CodeAddress: cfg.Recipient,
	}
	res := state.vm.Run(state, cfg.Revision, &msg, code)
	return res, state
}

// Create deploys the given init code and returns the deployed contract
// address alongside the result.
func Create(initCode []byte, cfg *Config) (vm.Result, *State) {
	if cfg == nil {
		cfg = new(Config)
	}
	cfg.setDefaults()

	state := cfg.State
	msg := vm.Message{
		Kind:   vm.CreateMsg,
		Gas:    cfg.GasLimit,
		Sender: cfg.Origin,
		Input:  initCode,
		Value:  cfg.Value,
	}
	res := state.create(msg)
	return res, state
}
