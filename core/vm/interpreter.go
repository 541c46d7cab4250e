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
	"sync"
)

// ExecutionState carries the mutable state of a single message frame. States
// are pooled; Execute acquires one and returns it when the frame completes.
type ExecutionState struct {
	Revision   Revision
	Msg        *Message
	Host       Host
	Code       []byte
	Stack      *Stack
	Memory     *Memory
	ReturnData []byte

	// GasLeft may drop below zero inside an instruction; the loop has
	// already stopped by then and the result reports out of gas.
	GasLeft   int64
	GasRefund int64
	Status    StatusCode

	outputOffset uint64
	outputSize   uint64

	// currentBlockCost is the full upfront charge of the basic block being
	// executed, needed to reconstruct exact gas at GAS and call sites.
	currentBlockCost uint32

	analysis *CodeAnalysis
}

// exit records the final status and stops the dispatch loop.
func (s *ExecutionState) exit(status StatusCode) int {
	s.Status = status
	return terminated
}

var statePool = sync.Pool{
	New: func() interface{} { return new(ExecutionState) },
}

func acquireState() *ExecutionState {
	return statePool.Get().(*ExecutionState)
}

func releaseState(s *ExecutionState) {
	*s = ExecutionState{}
	statePool.Put(s)
}

func (s *ExecutionState) reset(rev Revision, msg *Message, host Host, code []byte, analysis *CodeAnalysis) {
	s.Revision = rev
	s.Msg = msg
	s.Host = host
	s.Code = code
	s.Stack = newstack()
	s.Memory = NewMemory()
	s.ReturnData = nil
	s.GasLeft = msg.Gas
	s.GasRefund = 0
	s.Status = Success
	s.outputOffset = 0
	s.outputSize = 0
	s.currentBlockCost = 0
	s.analysis = analysis
}

// Execute analyzes code for the given revision and runs msg against it,
// reporting the outcome to the caller. The host receives all state queries
// and nested calls the code performs.
func Execute(host Host, rev Revision, msg *Message, code []byte) Result {
	analysis := Analyze(rev, code)
	return ExecuteAnalysis(host, rev, msg, code, analysis)
}

// ExecuteAnalysis runs msg against previously analyzed code. The analysis
// must have been produced by Analyze for the same revision and code.
func ExecuteAnalysis(host Host, rev Revision, msg *Message, code []byte, analysis *CodeAnalysis) Result {
	executeCounter.Inc(1)

	s := acquireState()
	s.reset(rev, msg, host, code, analysis)

	// Threaded dispatch: every executor returns the index of the next
	// instruction, or the terminated sentinel.
	for n := 0; n >= 0; {
		n = analysis.instrs[n].fn(n, s)
	}

	res := Result{Status: s.Status, MemoryConsumed: s.Memory.Len()}
	if s.Status == Success || s.Status == Revert {
		res.GasLeft = s.GasLeft
		if s.outputSize > 0 {
			res.Output = s.Memory.GetCopy(s.outputOffset, s.outputSize)
		}
	}
	if s.Status == Success {
		res.GasRefund = s.GasRefund
	}

	returnStack(s.Stack)
	s.Memory.Free()
	releaseState(s)
	return res
}
