package memsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

func TestReadsReturnCopies(t *testing.T) {
	e := New(1, SpatialEntity).Define("m_nCount", typeinfo.Uint32).Set("m_nCount", []byte{7, 0, 0, 0})

	mem := e.Memory()
	mem[0] = 99
	raw, ok := e.Get("m_nCount")
	require.True(t, ok)
	assert.Equal(t, []byte{7, 0, 0, 0}, raw)

	typ := e.Type()
	e.Define("m_bFlag", typeinfo.Bool)
	assert.Len(t, typ.Properties, 1)
	assert.Len(t, e.Type().Properties, 2)
	assert.Len(t, mem, 4)
	assert.Greater(t, len(e.Memory()), 4)
}
