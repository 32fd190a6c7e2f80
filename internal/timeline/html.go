package timeline

import (
	"fmt"
	"html/template"
	"io"
)

// PageOptions controls the HTML waterfall page.
type PageOptions struct {
	Title    string
	RunID    string
	Unit     Unit
	Maximize bool // stretch the waterfall to the full viewport
}

type pageSegment struct {
	Left  float64
	Width float64
	State string
	Tip   string
}

type pageLane struct {
	Source   string
	Segments []pageSegment
}

type pageData struct {
	PageOptions
	Span  string
	Lanes []pageLane
}

var pageTmpl = template.Must(template.New("waterfall").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:monospace;background:#0d1117;color:#c9d1d9;margin:{{if .Maximize}}0{{else}}16px auto;max-width:1200px{{end}}}
.hdr{padding:8px;font-size:12px;color:#8b949e}
.lane{display:flex;align-items:center;border-bottom:1px solid #21262d;height:22px}
.lbl{width:220px;flex-shrink:0;overflow:hidden;white-space:nowrap;font-size:11px;padding-left:6px}
.track{position:relative;flex:1;height:16px}
.seg{position:absolute;top:2px;height:12px;background:#1f6feb;border-left:1px solid #58a6ff;min-width:1px}
.seg:nth-child(even){background:#238636}
</style>
</head>
<body>
<div class="hdr">{{.Title}} &middot; run {{.RunID}} &middot; span {{.Span}}</div>
{{range .Lanes}}<div class="lane"><div class="lbl">{{.Source}}</div><div class="track">{{range .Segments}}<div class="seg" style="left:{{printf "%.4f" .Left}}%;width:{{printf "%.4f" .Width}}%" title="{{.Tip}}"></div>{{end}}</div></div>
{{end}}</body>
</html>
`))

// WriteHTML renders the partial tables as a waterfall page: one lane per
// partial, one segment per state, lasting until the next transition.
func WriteHTML(w io.Writer, partials []Timeline, opts PageOptions) error {
	if opts.Unit == "" {
		opts.Unit = Microseconds
	}

	data := pageData{PageOptions: opts}
	start, end, ok := Span(Aggregate(partials))
	span := end - start
	data.Span = fmt.Sprintf("%.3f %s", opts.Unit.Convert(span), opts.Unit)

	if ok {
		for _, tl := range Partition(partials) {
			lane := pageLane{Source: tl.Source}
			for i, ev := range tl.Events {
				stop := ev.Time
				if i+1 < len(tl.Events) {
					stop = tl.Events[i+1].Time
				}
				lane.Segments = append(lane.Segments, pageSegment{
					Left:  percent(ev.Time-start, span),
					Width: percent(stop-ev.Time, span),
					State: ev.State,
					Tip: fmt.Sprintf("%s %s +%.3f %s (%.3f %s)", ev.Op, ev.State,
						opts.Unit.Convert(ev.Time-start), opts.Unit,
						opts.Unit.Convert(stop-ev.Time), opts.Unit),
				})
			}
			data.Lanes = append(data.Lanes, lane)
		}
	}

	return pageTmpl.Execute(w, data)
}

// Partition returns the partials with their events in time order, dropping
// empty partials. Lanes need monotonic segments; the table keeps extraction
// order.
func Partition(partials []Timeline) []Timeline {
	out := make([]Timeline, 0, len(partials))
	for _, tl := range partials {
		if len(tl.Events) == 0 {
			continue
		}
		out = append(out, Timeline{Source: tl.Source, Events: Sorted(tl.Events)})
	}
	return out
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
