package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTablesComplete(t *testing.T) {
	for rev := Frontier; rev <= Shanghai; rev++ {
		tbl := Table(rev)
		for op := 0; op < 256; op++ {
			require.NotNil(t, tbl[op].execute, "%v: op %#x has no executor", rev, op)
		}
	}
}

func TestTableRevisionGating(t *testing.T) {
	cases := []struct {
		op    OpCode
		since Revision
	}{
		{DELEGATECALL, Homestead},
		{RETURNDATASIZE, Byzantium},
		{RETURNDATACOPY, Byzantium},
		{STATICCALL, Byzantium},
		{REVERT, Byzantium},
		{SHL, Constantinople},
		{SHR, Constantinople},
		{SAR, Constantinople},
		{EXTCODEHASH, Constantinople},
		{CREATE2, Constantinople},
		{CHAINID, Istanbul},
		{SELFBALANCE, Istanbul},
		{BASEFEE, London},
		{PUSH0, Shanghai},
	}
	for _, tc := range cases {
		res := run(t, tc.since-1, undefinedProbe(tc.op), 100_000)
		require.Equal(t, UndefinedInstruction, res.Status,
			"%v must be undefined before %v", tc.op, tc.since)

		res = run(t, tc.since, undefinedProbe(tc.op), 100_000)
		require.NotEqual(t, UndefinedInstruction, res.Status,
			"%v must be defined at %v", tc.op, tc.since)
	}
}

// undefinedProbe builds code whose first real instruction is op, with enough
// stack provided that block validation cannot fail first.
func undefinedProbe(op OpCode) []byte {
	code := make([]byte, 0, 16)
	for i := 0; i < 7; i++ {
		code = append(code, byte(PUSH1), 1)
	}
	return append(code, byte(op))
}

func TestCallGasRepricing(t *testing.T) {
	require.Equal(t, int16(40), Table(Homestead)[CALL].constantGas)
	require.Equal(t, int16(700), Table(TangerineWhistle)[CALL].constantGas)
	require.Equal(t, int16(100), Table(Berlin)[CALL].constantGas)
}

func TestSloadRepricing(t *testing.T) {
	require.Equal(t, int16(50), Table(Frontier)[SLOAD].constantGas)
	require.Equal(t, int16(200), Table(TangerineWhistle)[SLOAD].constantGas)
	require.Equal(t, int16(800), Table(Istanbul)[SLOAD].constantGas)
	require.Equal(t, int16(100), Table(Berlin)[SLOAD].constantGas)
}

func TestPetersburgMatchesConstantinople(t *testing.T) {
	// Petersburg changed nothing at the instruction table level.
	require.Same(t, Table(Constantinople), Table(Petersburg))
}
