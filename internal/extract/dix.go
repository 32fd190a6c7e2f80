package extract

import (
	"context"
	"fmt"

	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
)

// DIX extracts metadata requests: client → dix (→ mdix) → cas → rpc → fom.
type DIX struct {
	src  Source
	attr *graph.Attributor
	sch  *schema.Schema
}

// NewDIX returns the metadata extractor.
func NewDIX(src Source, sch *schema.Schema) *DIX {
	return &DIX{src: src, attr: graph.NewAttributor(src), sch: sch}
}

// Layer returns "dix".
func (d *DIX) Layer() string { return "dix" }

// Extract builds the client, dix, mdix, cas, rpc and fom timelines of the
// request. It fails with ErrLayerMismatch when the request has no dix child.
func (d *DIX) Extract(ctx context.Context, req Request) (Extraction, error) {
	dixIDs, err := d.src.Children(ctx, "client_to_dix", req.ID, req.PID)
	if err != nil {
		return Extraction{}, err
	}
	if len(dixIDs) == 0 {
		return Extraction{}, fmt.Errorf("dix: client request %s (pid %d): %w", req.ID, req.PID, ErrLayerMismatch)
	}

	w := &walker{src: d.src, req: req}
	n, err := w.states(ctx, store.KindClient, req.ID, req.PID, "client[dix] "+req.ID)
	if err != nil {
		return Extraction{}, err
	}
	if n == 0 {
		return Extraction{}, fmt.Errorf("dix: client request %s (pid %d): %w", req.ID, req.PID, ErrMissingData)
	}

	for _, dixID := range dixIDs {
		if _, err := w.states(ctx, store.KindDIX, dixID, req.PID, "dix "+dixID); err != nil {
			return Extraction{}, err
		}

		// Meta-index requests are dix requests of their own, issued on
		// behalf of the parent; their CAS traffic belongs to the same op.
		mdixIDs, err := d.src.Children(ctx, "dix_to_mdix", dixID, req.PID)
		if err != nil {
			return Extraction{}, err
		}
		for _, mdixID := range mdixIDs {
			if _, err := w.states(ctx, store.KindDIX, mdixID, req.PID, "mdix "+mdixID); err != nil {
				return Extraction{}, err
			}
		}

		for _, parent := range append([]string{dixID}, mdixIDs...) {
			casIDs, err := d.src.Children(ctx, "dix_to_cas", parent, req.PID)
			if err != nil {
				return Extraction{}, err
			}
			for _, casID := range casIDs {
				if _, err := w.states(ctx, store.KindCAS, casID, req.PID, "cas "+casID); err != nil {
					return Extraction{}, err
				}
				if err := w.rpcs(ctx, "cas_to_rpc", casID, req.PID); err != nil {
					return Extraction{}, err
				}
			}
		}
	}

	if err := w.attribute(ctx, d.attr, d.sch.Set(schema.SetDIX)); err != nil {
		return Extraction{}, err
	}

	w.summarize(d.Layer())
	return w.out, nil
}
