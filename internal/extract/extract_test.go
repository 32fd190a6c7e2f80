package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
	"github.com/roach88/opzoom/internal/testutil"
)

func sources(ex Extraction) []string {
	out := []string{}
	for _, tl := range ex.Timelines {
		out = append(out, tl.Source)
	}
	return out
}

func TestDefault_PriorityOrder(t *testing.T) {
	tr := testutil.NewTrace(t)
	layers := []string{}
	for _, ex := range Default(tr.Store, schema.Default()) {
		layers = append(layers, ex.Layer())
	}
	assert.Equal(t, []string{"dix", "ioo", "cob"}, layers)
}

func TestIOO_Extract(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedIO(testutil.DefaultIO)

	res, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "99", PID: 7})
	require.NoError(t, err)

	assert.Equal(t, []string{"client[ioo] 99", "ioo 5", "rpc 300", "fom 800 (pid 9)"}, sources(res))
	events := res.Events()
	require.Len(t, events, 8)
	for _, ev := range events[:2] {
		assert.Equal(t, "client[ioo] 99", ev.Op)
	}
	assert.Equal(t, int64(9), events[7].PID)
	assert.Equal(t, "finish", events[7].State)
	assert.Empty(t, res.Relations, "no graph requested")
}

func TestIOO_LayerMismatch(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedDIX(testutil.DefaultDIX)

	_, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "120", PID: 7})
	assert.True(t, errors.Is(err, ErrLayerMismatch), "error = %v", err)
}

func TestIOO_MissingClientStates(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.Map("client_to_ioo", 7, "99", "5")

	_, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "99", PID: 7})
	assert.True(t, errors.Is(err, ErrMissingData), "error = %v", err)
}

func TestIOO_OtherProcessIsMismatch(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedIO(testutil.DefaultIO)

	_, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "99", PID: 8})
	assert.True(t, errors.Is(err, ErrLayerMismatch), "error = %v", err)
}

func TestIOO_RangeFiltersEvents(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedIO(testutil.DefaultIO)

	// keep everything up to the ioo request's first state
	cutoff := int64(testutil.TraceStart + 6*testutil.TraceStep)
	res, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(),
		Request{ID: "99", PID: 7, Range: Range{To: cutoff}})
	require.NoError(t, err)

	for _, ev := range res.Events() {
		assert.LessOrEqual(t, ev.Time, cutoff)
	}
	assert.Equal(t, []string{"client[ioo] 99", "ioo 5"}, sources(res))
}

func TestCOB_Extract(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.MIOOp(7, "1", "44", "130")
	tr.States(store.KindClient, 7, "130", "initialised", "stable")
	tr.Map("client_to_cob", 7, "130", "35")
	tr.States(store.KindCOB, 7, "35", "COB_REQ_SENDING", "COB_REQ_DONE")
	tr.Map("cob_to_rpc", 7, "35", "320")
	tr.States(store.KindRPC, 7, "320", "SENT", "REPLIED")

	cob := NewCOB(tr.Store, schema.Default())
	assert.Equal(t, "cob", cob.Layer())

	res, err := cob.Extract(context.Background(), Request{ID: "130", PID: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"client[cob] 130", "cob 35", "rpc 320"}, sources(res))

	_, err = NewIOO(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "130", PID: 7})
	assert.True(t, errors.Is(err, ErrLayerMismatch))
}

func TestDIX_Extract(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedDIX(testutil.DefaultDIX)

	res, err := NewDIX(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "120", PID: 7})
	require.NoError(t, err)

	assert.Equal(t, []string{"client[dix] 120", "dix 15", "cas 25", "rpc 310", "fom 810 (pid 9)"}, sources(res))
	assert.Len(t, res.Events(), 10)
}

func TestDIX_MetaIndexRequests(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.States(store.KindClient, 7, "120", "initialised")
	tr.Map("client_to_dix", 7, "120", "15")
	tr.States(store.KindDIX, 7, "15", "DIXREQ_INIT")
	tr.Map("dix_to_mdix", 7, "15", "16")
	tr.States(store.KindDIX, 7, "16", "DIXREQ_META_UPDATE")
	tr.Map("dix_to_cas", 7, "16", "26")
	tr.States(store.KindCAS, 7, "26", "CASREQ_INIT")

	res, err := NewDIX(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "120", PID: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"client[dix] 120", "dix 15", "mdix 16", "cas 26"}, sources(res))
}

func TestDIX_LayerMismatch(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedIO(testutil.DefaultIO)

	_, err := NewDIX(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "99", PID: 7})
	assert.True(t, errors.Is(err, ErrLayerMismatch))
}

func TestExtract_AttributesGraph(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedIO(testutil.DefaultIO)

	g := graph.New("g")
	res, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(),
		Request{ID: "99", PID: 7, BuildGraph: true, Graph: g})
	require.NoError(t, err)

	require.Len(t, res.Relations, 1)
	assert.Equal(t, "motr_op", res.Relations[0].Kind)
	assert.True(t, g.HasEdge("motr_op_99_7", "ioo_5_7"))
	assert.True(t, g.HasEdge("ioo_5_7", "rpc_300_7"))
	assert.True(t, g.HasEdge("rpc_300_7", "fom_800_9"))
	assert.True(t, g.IsLeaf("fom_800_9"))
}

func TestExtract_StoreFailureIsNotAMismatch(t *testing.T) {
	tr := testutil.NewTrace(t)
	tr.SeedIO(testutil.DefaultIO)
	tr.Store.Close()

	_, err := NewIOO(tr.Store, schema.Default()).Extract(context.Background(), Request{ID: "99", PID: 7})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrQuery))
	assert.False(t, errors.Is(err, ErrLayerMismatch))
}

func TestRange_Contains(t *testing.T) {
	assert.True(t, Range{}.Contains(5))
	assert.True(t, Range{From: 5, To: 5}.Contains(5))
	assert.False(t, Range{From: 6}.Contains(5))
	assert.False(t, Range{To: 4}.Contains(5))
}
