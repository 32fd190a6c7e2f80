package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Sets(t *testing.T) {
	s := Default()
	assert.Equal(t, []string{SetCOB, SetDIX, SetIOO, SetMIO}, s.Names())

	mio := s.Set(SetMIO)
	require.Len(t, mio, 1)
	assert.Equal(t, Row{
		Relation: "mio_op_to_motr_op",
		From:     "mio_op",
		To:       "motr_op",
		Mapping:  "mio_op_to_motr_op",
		Flags:    "C",
	}, mio[0])
}

func TestDefault_RPCToFOMIsLeaf(t *testing.T) {
	for _, name := range []string{SetDIX, SetIOO, SetCOB} {
		rows := Default().Set(name)
		last := rows[len(rows)-1]
		assert.Equal(t, "rpc_to_fom", last.Relation, name)
		assert.True(t, last.Flags.Leaf(), name)
	}
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestSet_ReturnsCopy(t *testing.T) {
	s := Default()
	rows := s.Set(SetIOO)
	rows[0].Relation = "mutated"

	assert.Equal(t, "client_to_ioo", s.Set(SetIOO)[0].Relation)
}

func TestSet_Unknown(t *testing.T) {
	assert.Nil(t, Default().Set("nfs"))
}

func TestFlags(t *testing.T) {
	tests := []struct {
		flags                            Flags
		oneToOne, stash, leaf, serverPID bool
	}{
		{"", false, false, false, false},
		{"1", true, false, false, false},
		{"Cs", false, true, false, false},
		{"Cl", false, false, true, false},
		{"S", false, false, false, true},
		{"1slS", true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.flags), func(t *testing.T) {
			assert.Equal(t, tt.oneToOne, tt.flags.OneToOne())
			assert.Equal(t, tt.stash, tt.flags.Stash())
			assert.Equal(t, tt.leaf, tt.flags.Leaf())
			assert.Equal(t, tt.serverPID, tt.flags.ServerPID())
		})
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("Cs")
	require.NoError(t, err)
	assert.Equal(t, Flags("Cs"), f)

	_, err = ParseFlags("Cx")
	assert.Error(t, err)
}

func TestLoad_Custom(t *testing.T) {
	src := `
sets: nfs: [
	{relation: "client_to_ioo", from: "motr_op", to: "ioo", mapping: "client_to_ioo", flags: "1"},
]
`
	s, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"nfs"}, s.Names())
	assert.True(t, s.Set("nfs")[0].Flags.OneToOne())
}

func TestLoad_MissingSets(t *testing.T) {
	_, err := Load(`rows: []`)
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "sets", le.Field)
}

func TestLoad_InvalidFlags(t *testing.T) {
	src := `
#Row: {flags: string & =~"^[1slCS]*$", ...}
sets: x: [#Row & {relation: "r", from: "a", to: "b", mapping: "m", flags: "Q"}]
`
	_, err := Load(src)
	assert.Error(t, err)
}

func TestLoad_InvalidFlagsWithoutConstraint(t *testing.T) {
	src := `sets: x: [{relation: "r", from: "a", to: "b", mapping: "m", flags: "Q"}]`

	_, err := Load(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid relation flag")
}

func TestLoad_MissingField(t *testing.T) {
	src := `sets: x: [{relation: "r", from: "a", to: "b", flags: ""}]`

	_, err := Load(src)
	assert.Error(t, err)
}

func TestLoad_SyntaxError(t *testing.T) {
	_, err := Load(`sets: {`)
	assert.Error(t, err)
}
