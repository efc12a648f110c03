package api

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"morsel-sales/models"
	"morsel-sales/services"
)

const (
	chartWidth  = 800.0
	chartHeight = 300.0
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 900px; margin: 30px auto; color: #222; }
h1 { color: #c2185b; }
#region-radio label { margin-right: 12px; }
#sales-line { border: 1px solid #ddd; background: #fafafa; }
#summary td { padding: 2px 12px 2px 0; }
.cutoff { stroke: #999; stroke-dasharray: 4 4; }
#moving-average { stroke: #1565c0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>

<form id="region-radio" method="get" action="/">
{{range .Regions}}<label><input type="radio" name="region" value="{{.}}"{{if eq . $.Region}} checked{{end}} onchange="this.form.submit()"> {{.}}</label>
{{end}}<input type="hidden" name="start" value="{{.Start}}">
<input type="hidden" name="end" value="{{.End}}">
{{if .ShowMA}}<input type="hidden" name="ma" value="true">{{end}}
</form>

<form id="date-range" method="get" action="/">
<input type="hidden" name="region" value="{{.Region}}">
<input type="date" name="start" value="{{.Start}}" min="{{.First}}" max="{{.Last}}">
<input type="date" name="end" value="{{.End}}" min="{{.First}}" max="{{.Last}}">
<label><input id="ma-toggle" type="checkbox" name="ma" value="true"{{if .ShowMA}} checked{{end}} onchange="this.form.submit()"> Show {{.Window}}-day moving average</label>
<button type="submit">Apply</button>
<a id="reset-range" href="{{.ResetURL}}">Reset dates</a>
</form>

<svg id="sales-line" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
{{if .CutoffX}}<line class="cutoff" x1="{{.CutoffX}}" y1="0" x2="{{.CutoffX}}" y2="{{.Height}}"></line>{{end}}
<polyline fill="none" stroke="#c2185b" stroke-width="2" points="{{.Points}}"></polyline>
{{if .MAPoints}}<polyline id="moving-average" fill="none" stroke-width="2" points="{{.MAPoints}}"></polyline>{{end}}
</svg>

<table id="summary">
<tr><td>Days shown</td><td>{{.Days}}</td></tr>
<tr><td>Sales before {{.Cutoff}}</td><td>{{.Before}}</td></tr>
<tr><td>Sales from {{.Cutoff}}</td><td>{{.After}}</td></tr>
<tr><td>Change</td><td>{{.Delta}} ({{.Percent}})</td></tr>
</table>
</body>
</html>
`))

type dashboardData struct {
	Title    string
	Regions  []string
	Region   string
	Start    string
	End      string
	First    string
	Last     string
	ResetURL string
	ShowMA   bool
	Window   int
	Width    float64
	Height   float64
	Points   string
	MAPoints string
	CutoffX  string
	Days     int
	Cutoff   string
	Before   string
	After    string
	Delta    string
	Percent  string
}

// Dashboard renders the HTML view for the region and date range in the
// query string. Missing dates default to the data span.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := h.pipeline.Snapshot()
	view, err := h.pipeline.QuerySnapshot(snap, q)
	if err != nil {
		h.queryError(w, r, err)
		return
	}

	opts := h.pipeline.Options()
	data := dashboardData{
		Title:    fmt.Sprintf("%s Sales", services.TitleCase(opts.Product)),
		Regions:  append(h.pipeline.Regions(), services.AllRegions),
		Region:   view.Region,
		Start:    formatDay(view.Start),
		End:      formatDay(view.End),
		ResetURL: resetURL(view.Region, q.MovingAverage),
		ShowMA:   q.MovingAverage,
		Window:   opts.MovingAverageWindow,
		Width:    chartWidth,
		Height:   chartHeight,
		Days:     len(view.Daily),
		Cutoff:   view.Cutoff.Format(models.DateLayout),
		Before:   services.FormatMoney(view.Comparison.TotalBefore),
		After:    services.FormatMoney(view.Comparison.TotalAfter),
		Delta:    services.FormatMoney(view.Comparison.Delta),
		Percent:  view.Comparison.PercentChange.String(),
	}
	if first, last, ok := snap.Dataset.Span(); ok {
		data.First = first.Format(models.DateLayout)
		data.Last = last.Format(models.DateLayout)
	}
	data.Points, data.MAPoints, data.CutoffX = chartPoints(view)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		h.logger.Error("[api] render dashboard: %v", err)
	}
}

func resetURL(region string, ma bool) string {
	v := url.Values{"region": {region}}
	if ma {
		v.Set("ma", "true")
	}
	return "/?" + v.Encode()
}

// chartPoints scales the daily totals, and the defined moving-average points
// on the same axes, into SVG polyline coordinates. It also returns the x
// position of the cutoff when it falls inside the series.
func chartPoints(view models.SalesView) (points, maPoints, cutoffX string) {
	n := len(view.Daily)
	if n == 0 {
		return "", "", ""
	}

	maxSales := 0.0
	for _, d := range view.Daily {
		if v := d.Sales.InexactFloat64(); v > maxSales {
			maxSales = v
		}
	}
	if maxSales == 0 {
		maxSales = 1
	}

	x := func(i int) float64 {
		if n == 1 {
			return chartWidth / 2
		}
		return float64(i) * chartWidth / float64(n-1)
	}

	y := func(v float64) float64 {
		return chartHeight - v/maxSales*chartHeight
	}

	coords := make([]string, n)
	for i, d := range view.Daily {
		coords[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(d.Sales.InexactFloat64()))
		if cutoffX == "" && !d.Date.Before(view.Cutoff) && i > 0 {
			cutoffX = fmt.Sprintf("%.1f", x(i))
		}
	}

	var avg []string
	for i, p := range view.MovingAverage {
		if p.Defined && i < n {
			avg = append(avg, fmt.Sprintf("%.1f,%.1f", x(i), y(p.Average.InexactFloat64())))
		}
	}
	return strings.Join(coords, " "), strings.Join(avg, " "), cutoffX
}
