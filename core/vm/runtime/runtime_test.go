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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/flarevm/flarevm/core/vm"
)

func TestExecuteReturnsSum(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 10,
		byte(vm.PUSH1), 32,
		byte(vm.ADD),
		byte(vm.PUSH1), 0,
		byte(vm.MSTORE),
		byte(vm.PUSH1), 32,
		byte(vm.PUSH1), 0,
		byte(vm.RETURN),
	}
	res, _ := Execute(code, nil, nil)
	require.Equal(t, vm.Success, res.Status)

	var got uint256.Int
	got.SetBytes(res.Output)
	require.Equal(t, uint64(42), got.Uint64())
}

func TestExecuteReadsInput(t *testing.T) {
	// Echo the first word of calldata.
	code := []byte{
		byte(vm.PUSH1), 0,
		byte(vm.CALLDATALOAD),
		byte(vm.PUSH1), 0,
		byte(vm.MSTORE),
		byte(vm.PUSH1), 32,
		byte(vm.PUSH1), 0,
		byte(vm.RETURN),
	}
	input := make([]byte, 32)
	input[31] = 0x2a
	res, _ := Execute(code, input, nil)
	require.Equal(t, vm.Success, res.Status)
	require.Equal(t, input, res.Output)
}

func TestExecuteStorageAndLogs(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 0x2a,
		byte(vm.PUSH1), 1,
		byte(vm.SSTORE),
		byte(vm.PUSH1), 0xaa, // topic
		byte(vm.PUSH1), 0, // size
		byte(vm.PUSH1), 0, // offset
		byte(vm.LOG1),
	}
	res, state := Execute(code, nil, nil)
	require.Equal(t, vm.Success, res.Status)

	cfg := Config{}
	cfg.setDefaults()
	slot := state.GetStorage(cfg.Recipient, common.Hash{31: 1})
	require.Equal(t, common.Hash{31: 0x2a}, slot)

	require.Len(t, state.Logs, 1)
	require.Equal(t, common.Hash{31: 0xaa}, state.Logs[0].Topics[0])
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.setDefaults()
	require.Equal(t, vm.LatestRevision, cfg.Revision)
	require.Equal(t, int64(10_000_000), cfg.GasLimit)
	require.NotNil(t, cfg.State)
}

func TestCreateDeploysCode(t *testing.T) {
	// Init code returning the single-byte runtime STOP (0x00): store the
	// byte in memory and return one byte.
	initCode := []byte{
		byte(vm.PUSH1), byte(vm.STOP),
		byte(vm.PUSH1), 0,
		byte(vm.MSTORE8),
		byte(vm.PUSH1), 1,
		byte(vm.PUSH1), 0,
		byte(vm.RETURN),
	}
	res, state := Create(initCode, nil)
	require.Equal(t, vm.Success, res.Status)
	require.NotEqual(t, common.Address{}, res.CreateAddress)
	require.Equal(t, []byte{byte(vm.STOP)}, state.GetCode(res.CreateAddress))
}

func TestCreateRevertingInit(t *testing.T) {
	initCode := []byte{
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.REVERT),
	}
	res, state := Create(initCode, nil)
	require.Equal(t, vm.Revert, res.Status)
	require.Equal(t, common.Address{}, res.CreateAddress)
	_ = state
}

func TestNestedCallRevertsState(t *testing.T) {
	rev := vm.Shanghai
	state := NewState(rev, vm.TxContext{GasLimit: 1_000_000})

	callee := common.BytesToAddress([]byte{0xca})
	caller := common.BytesToAddress([]byte{0xcb})

	// Callee stores to slot 0, then reverts.
	state.CreateAccount(callee, []byte{
		byte(vm.PUSH1), 1,
		byte(vm.PUSH1), 0,
		byte(vm.SSTORE),
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.REVERT),
	}, nil)

	// Caller calls the callee and returns the success flag.
	callerCode := []byte{
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0xca,
		byte(vm.GAS),
		byte(vm.CALL),
		byte(vm.PUSH1), 0,
		byte(vm.MSTORE),
		byte(vm.PUSH1), 32,
		byte(vm.PUSH1), 0,
		byte(vm.RETURN),
	}
	state.CreateAccount(caller, callerCode, nil)

	cfg := &Config{Revision: rev, State: state, Recipient: caller}
	res, _ := Execute(callerCode, nil, cfg)
	require.Equal(t, vm.Success, res.Status)

	// The CALL pushed zero and the callee's store was rolled back.
	var flag uint256.Int
	flag.SetBytes(res.Output)
	require.True(t, flag.IsZero())
	require.Equal(t, common.Hash{}, state.GetStorage(callee, common.Hash{}))
}

func TestNestedCallCommitsOnSuccess(t *testing.T) {
	rev := vm.Shanghai
	state := NewState(rev, vm.TxContext{GasLimit: 1_000_000})

	callee := common.BytesToAddress([]byte{0xca})
	caller := common.BytesToAddress([]byte{0xcb})

	state.CreateAccount(callee, []byte{
		byte(vm.PUSH1), 7,
		byte(vm.PUSH1), 0,
		byte(vm.SSTORE),
	}, nil)

	callerCode := []byte{
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0,
		byte(vm.PUSH1), 0xca,
		byte(vm.GAS),
		byte(vm.CALL),
	}
	state.CreateAccount(caller, callerCode, nil)

	cfg := &Config{Revision: rev, State: state, Recipient: caller}
	res, _ := Execute(callerCode, nil, cfg)
	require.Equal(t, vm.Success, res.Status)
	require.Equal(t, common.Hash{31: 7}, state.GetStorage(callee, common.Hash{}))
}

func TestValueTransfer(t *testing.T) {
	rev := vm.Shanghai
	state := NewState(rev, vm.TxContext{})

	rich := common.BytesToAddress([]byte{0xaa})
	poor := common.BytesToAddress([]byte{0xbb})
	var hundred uint256.Int
	hundred.SetUint64(100)
	state.SetBalance(rich, &hundred)

	var forty uint256.Int
	forty.SetUint64(40)
	res := state.Call(vm.Message{
		Kind:      vm.CallMsg,
		Gas:       100_000,
		Sender:    rich,
		Recipient: poor,
		Value:     forty,
	})
	require.Equal(t, vm.Success, res.Status)

	got := state.GetBalance(poor)
	require.Equal(t, uint64(40), got.Uint64())
	got = state.GetBalance(rich)
	require.Equal(t, uint64(60), got.Uint64())
}

func TestSelfdestructMovesBalance(t *testing.T) {
	rev := vm.London
	state := NewState(rev, vm.TxContext{})

	victim := common.BytesToAddress([]byte{0xdd})
	heir := common.BytesToAddress([]byte{0xee})
	var bal uint256.Int
	bal.SetUint64(55)

	code := []byte{
		byte(vm.PUSH1), 0xee,
		byte(vm.SELFDESTRUCT),
	}
	state.CreateAccount(victim, code, &bal)
	state.SetBalance(heir, new(uint256.Int).SetUint64(1))

	res := state.Call(vm.Message{
		Kind:        vm.CallMsg,
		Gas:         100_000,
		Recipient:   victim,
		CodeAddress: victim,
	})
	require.Equal(t, vm.Success, res.Status)

	got := state.GetBalance(heir)
	require.Equal(t, uint64(56), got.Uint64())
	got = state.GetBalance(victim)
	require.True(t, got.IsZero())
}

func TestCreate2AddressDeterministic(t *testing.T) {
	initCode := []byte{byte(vm.STOP)}
	state := NewState(vm.Shanghai, vm.TxContext{})
	sender := common.BytesToAddress([]byte{0x01})

	res1 := state.Call(vm.Message{
		Kind: vm.Create2Msg, Gas: 1_000_000, Sender: sender,
		Input: initCode, Salt: common.Hash{31: 9},
	})
	require.Equal(t, vm.Success, res1.Status)

	other := NewState(vm.Shanghai, vm.TxContext{})
	res2 := other.Call(vm.Message{
		Kind: vm.Create2Msg, Gas: 1_000_000, Sender: sender,
		Input: initCode, Salt: common.Hash{31: 9},
	})
	require.Equal(t, res1.CreateAddress, res2.CreateAddress)
}
