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

// StatusCode is the single failure channel of the interpreter. A run reports
// exactly one status; everything except Success and Revert consumes all gas.
type StatusCode int

const (
	Success StatusCode = iota
	Failure
	Revert
	OutOfGas
	InvalidInstruction
	UndefinedInstruction
	StackOverflow
	StackUnderflow
	BadJumpDestination
	InvalidMemoryAccess
	CallDepthExceeded
	StaticModeViolation
)

func (st StatusCode) String() string {
	switch st {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Revert:
		return "revert"
	case OutOfGas:
		return "out of gas"
	case InvalidInstruction:
		return "invalid instruction"
	case UndefinedInstruction:
		return "undefined instruction"
	case StackOverflow:
		return "stack overflow"
	case StackUnderflow:
		return "stack underflow"
	case BadJumpDestination:
		return "bad jump destination"
	case InvalidMemoryAccess:
		return "invalid memory access"
	case CallDepthExceeded:
		return "call depth exceeded"
	case StaticModeViolation:
		return "static mode violation"
	default:
		return "unknown status"
	}
}
