package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/opzoom/internal/store"
)

func TestTrace_SeedIOIsReadable(t *testing.T) {
	tr := NewTrace(t)
	tr.SeedIO(DefaultIO)
	ctx := context.Background()

	links, err := tr.Store.LinksForOp(ctx, "42", nil)
	require.NoError(t, err)
	assert.Equal(t, []store.Link{{MotrOp: "99", PID: 7}}, links)

	foms, err := tr.Store.ServerFoms(ctx, "300", 7)
	require.NoError(t, err)
	assert.Equal(t, []store.Target{{ID: "800", PID: 9}}, foms)
}

func TestTrace_TimesAreDeterministic(t *testing.T) {
	tr := NewTrace(t)
	tr.States(store.KindClient, 7, "99", "initialised", "stable")

	events, err := tr.Store.RequestStates(context.Background(), store.KindClient, "99", 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TraceStart+TraceStep, events[0].Time)
	assert.Equal(t, TraceStart+2*TraceStep, events[1].Time)
}
