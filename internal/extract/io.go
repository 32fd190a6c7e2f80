package extract

import (
	"context"
	"fmt"

	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
)

// ioChain builds client → ioo|cob → rpc → fom timelines. The cob flag picks
// the COB tables; everything else is shared.
type ioChain struct {
	src  Source
	attr *graph.Attributor
	sch  *schema.Schema
}

type ioLayer struct {
	name     string
	clientTo string
	kind     store.RequestKind
	toRPC    string
	set      string
}

var (
	iooLayer = ioLayer{name: "ioo", clientTo: "client_to_ioo", kind: store.KindIOO, toRPC: "ioo_to_rpc", set: schema.SetIOO}
	cobLayer = ioLayer{name: "cob", clientTo: "client_to_cob", kind: store.KindCOB, toRPC: "cob_to_rpc", set: schema.SetCOB}
)

func (c *ioChain) timelines(ctx context.Context, req Request, cob bool) (Extraction, error) {
	layer := iooLayer
	if cob {
		layer = cobLayer
	}

	ids, err := c.src.Children(ctx, layer.clientTo, req.ID, req.PID)
	if err != nil {
		return Extraction{}, err
	}
	if len(ids) == 0 {
		return Extraction{}, fmt.Errorf("%s: client request %s (pid %d): %w", layer.name, req.ID, req.PID, ErrLayerMismatch)
	}

	w := &walker{src: c.src, req: req}
	n, err := w.states(ctx, store.KindClient, req.ID, req.PID, fmt.Sprintf("client[%s] %s", layer.name, req.ID))
	if err != nil {
		return Extraction{}, err
	}
	if n == 0 {
		return Extraction{}, fmt.Errorf("%s: client request %s (pid %d): %w", layer.name, req.ID, req.PID, ErrMissingData)
	}

	for _, id := range ids {
		if _, err := w.states(ctx, layer.kind, id, req.PID, layer.name+" "+id); err != nil {
			return Extraction{}, err
		}
		if err := w.rpcs(ctx, layer.toRPC, id, req.PID); err != nil {
			return Extraction{}, err
		}
	}

	if err := w.attribute(ctx, c.attr, c.sch.Set(layer.set)); err != nil {
		return Extraction{}, err
	}

	w.summarize(layer.name)
	return w.out, nil
}

// ioAdapter pins the cob discriminator of the shared chain.
type ioAdapter struct {
	chain *ioChain
	cob   bool
}

// NewIOO returns the extractor for object I/O requests.
func NewIOO(src Source, sch *schema.Schema) Extractor {
	return &ioAdapter{chain: newIOChain(src, sch), cob: false}
}

// NewCOB returns the extractor for COB (object create/delete) requests.
func NewCOB(src Source, sch *schema.Schema) Extractor {
	return &ioAdapter{chain: newIOChain(src, sch), cob: true}
}

func newIOChain(src Source, sch *schema.Schema) *ioChain {
	return &ioChain{src: src, attr: graph.NewAttributor(src), sch: sch}
}

func (a *ioAdapter) Layer() string {
	if a.cob {
		return cobLayer.name
	}
	return iooLayer.name
}

func (a *ioAdapter) Extract(ctx context.Context, req Request) (Extraction, error) {
	return a.chain.timelines(ctx, req, a.cob)
}
