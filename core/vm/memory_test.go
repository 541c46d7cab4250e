package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	defer m.Free()
	m.Resize(64)

	var v uint256.Int
	v.SetUint64(0xdeadbeef)
	m.Set32(16, &v)

	// Big-endian, left-padded to the full word.
	got := m.GetCopy(16, 32)
	require.Equal(t, make([]byte, 28), got[:28])
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got[28:])

	var back uint256.Int
	back.SetBytes(got)
	require.Equal(t, v, back)
}

func TestMemorySetAndCopy(t *testing.T) {
	m := NewMemory()
	defer m.Free()
	m.Resize(32)

	m.Set(4, 3, []byte{1, 2, 3})
	require.Equal(t, []byte{0, 1, 2, 3, 0}, m.GetCopy(3, 5))

	// GetCopy must not alias the store.
	cpy := m.GetCopy(4, 3)
	cpy[0] = 0xff
	require.Equal(t, byte(1), m.Data()[4])
}

func TestMemoryGetPtrAliases(t *testing.T) {
	m := NewMemory()
	defer m.Free()
	m.Resize(32)

	ptr := m.GetPtr(0, 4)
	ptr[0] = 0x77
	require.Equal(t, byte(0x77), m.Data()[0])
}

func TestMemoryZeroSize(t *testing.T) {
	m := NewMemory()
	defer m.Free()
	require.Nil(t, m.GetCopy(0, 0))
	require.Nil(t, m.GetPtr(0, 0))
	require.Zero(t, m.Len())
}

func TestMemoryPoolReuseResets(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 1, []byte{0xff})
	m.lastGasCost = 3
	m.Free()

	m2 := NewMemory()
	defer m2.Free()
	require.Zero(t, m2.Len())
	require.Zero(t, m2.lastGasCost)
}

func TestStackOps(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	var a, b uint256.Int
	a.SetUint64(1)
	b.SetUint64(2)
	st.push(&a)
	st.push(&b)
	require.Equal(t, 2, st.len())

	st.swap(2)
	require.Equal(t, uint64(1), st.peek().Uint64())

	st.dup(2)
	require.Equal(t, 3, st.len())
	require.Equal(t, uint64(2), st.peek().Uint64())

	top := st.pop()
	require.Equal(t, uint64(2), top.Uint64())
	require.Equal(t, uint64(2), st.Back(1).Uint64())
}
