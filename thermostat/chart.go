package thermostat

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultChartWidth  = 1200
	DefaultChartHeight = 700

	tickFontSize   = 8.0
	timeTickFormat = "01/02 15:04"
)

var (
	recordedTempColor = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	setTempColor      = drawing.Color{R: 214, G: 39, B: 40, A: 255}
	humidityColor     = drawing.Color{R: 31, G: 119, B: 180, A: 255}

	coolingOnColor  = drawing.Color{R: 0, G: 255, B: 255, A: 51}
	coolingOffColor = drawing.Color{R: 255, G: 0, B: 0, A: 51}

	gridMajorStyle = chart.Style{StrokeColor: drawing.Color{R: 0, G: 0, B: 0, A: 64}, StrokeWidth: 1}
)

// ChartOptions controls the rendered chart.
type ChartOptions struct {
	Width       int
	Height      int
	ShowMarkers bool // draw cooling on/off markers on the temperature panel
}

// RenderChart draws s as two stacked panels sharing the time axis:
// temperatures on top (4/5 of the height) and humidity below.
// Empty input yields blank panels rather than an error.
func RenderChart(s Series, opts ChartOptions) (image.Image, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = DefaultChartWidth
	}
	if h <= 0 {
		h = DefaultChartHeight
	}
	topH := h * 4 / 5
	bottomH := h - topH

	xr := timeAxisRange(s.Timestamps)
	top, err := renderTemperaturePanel(s, xr, w, topH, opts.ShowMarkers)
	if err != nil {
		return nil, fmt.Errorf("temperature panel: %w", err)
	}
	bottom, err := renderHumidityPanel(s, xr, w, bottomH)
	if err != nil {
		return nil, fmt.Errorf("humidity panel: %w", err)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, image.Rect(0, 0, w, topH), top, top.Bounds().Min, draw.Src)
	draw.Draw(out, image.Rect(0, topH, w, h), bottom, bottom.Bounds().Min, draw.Src)
	return out, nil
}

func renderTemperaturePanel(s Series, xr *chart.ContinuousRange, w, h int, showMarkers bool) (image.Image, error) {
	const title = "Temperature (F)"
	if xr == nil {
		return blankPanel(w, h, title+": no data"), nil
	}
	yr, hasTemps := valueAxisRange(s.ActualTemps, s.SetTemps)
	var markers []chart.Series
	if showMarkers {
		markers = coolingMarkers(s, yr)
	}
	if !hasTemps && len(markers) == 0 {
		return blankPanel(w, h, title+": no data"), nil
	}

	var lines []chart.Series
	if xs, ys := presentPoints(s.Timestamps, s.ActualTemps); len(xs) > 0 {
		lines = append(lines, chart.TimeSeries{
			Name:    "Recorded Temperature",
			Style:   chart.Style{StrokeColor: recordedTempColor, StrokeWidth: 1.5},
			XValues: xs,
			YValues: ys,
		})
	}
	if xs, ys := presentPoints(s.Timestamps, s.SetTemps); len(xs) > 0 {
		lines = append(lines, chart.TimeSeries{
			Name:    "Set Temperature",
			Style:   chart.Style{StrokeColor: setTempColor, StrokeWidth: 1.5},
			XValues: xs,
			YValues: ys,
		})
	}

	ch := chart.Chart{
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 16, Left: 16, Right: 16, Bottom: 8}},
		XAxis:      timeAxis("", xr),
		YAxis: chart.YAxis{
			Name:           title,
			Style:          chart.Style{FontSize: tickFontSize},
			ValueFormatter: intValueFormatter,
			Range:          yr,
			GridMajorStyle: gridMajorStyle,
		},
		// Markers first so the readings are drawn over them.
		Series: append(append([]chart.Series{}, markers...), lines...),
	}
	if len(lines) > 0 {
		legend := ch
		legend.Series = lines
		ch.Elements = []chart.Renderable{chart.Legend(&legend)}
	}
	return renderPanel(ch)
}

func renderHumidityPanel(s Series, xr *chart.ContinuousRange, w, h int) (image.Image, error) {
	const title = "Humidity (%)"
	xs, ys := presentPoints(s.Timestamps, s.Humidity)
	if xr == nil || len(xs) == 0 {
		return blankPanel(w, h, title+": no data"), nil
	}
	yr, _ := valueAxisRange(s.Humidity)
	ch := chart.Chart{
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 8, Left: 16, Right: 16, Bottom: 8}},
		XAxis:      timeAxis(timeAxisName(s.Timestamps), xr),
		YAxis: chart.YAxis{
			Name:           title,
			Style:          chart.Style{FontSize: tickFontSize},
			ValueFormatter: intValueFormatter,
			Range:          yr,
			GridMajorStyle: gridMajorStyle,
		},
		Series: []chart.Series{chart.TimeSeries{
			Name:    "Humidity",
			Style:   chart.Style{StrokeColor: humidityColor, StrokeWidth: 1.5},
			XValues: xs,
			YValues: ys,
		}},
	}
	return renderPanel(ch)
}

func renderPanel(ch chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func timeAxis(name string, xr *chart.ContinuousRange) chart.XAxis {
	return chart.XAxis{
		Name:           name,
		Style:          chart.Style{FontSize: tickFontSize},
		ValueFormatter: chart.TimeValueFormatterWithFormat(timeTickFormat),
		Range:          xr,
		GridMajorStyle: gridMajorStyle,
	}
}

func timeAxisName(ts []time.Time) string {
	if len(ts) == 0 {
		return "Date and Time"
	}
	zone, _ := ts[0].Zone()
	return fmt.Sprintf("Date and Time (%s)", zone)
}

// timeAxisRange spans every timestamp so both panels share one x range.
// It returns nil when there is nothing to plot.
func timeAxisRange(ts []time.Time) *chart.ContinuousRange {
	if len(ts) == 0 {
		return nil
	}
	lo, hi := ts[0], ts[0]
	for _, t := range ts[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	if !hi.After(lo) {
		hi = lo.Add(time.Minute)
	}
	return &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)}
}

// valueAxisRange covers every present value of cols with a small margin.
// Without any value it returns a unit range and false.
func valueAxisRange(cols ...[]*int) (*chart.ContinuousRange, bool) {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, col := range cols {
		for _, v := range col {
			if v == nil {
				continue
			}
			lo = math.Min(lo, float64(*v))
			hi = math.Max(hi, float64(*v))
		}
	}
	if lo > hi {
		return &chart.ContinuousRange{Min: 0, Max: 1}, false
	}
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: math.Floor(lo - pad), Max: math.Ceil(hi + pad)}, true
}

// presentPoints keeps the samples that carry a value. A lone point is
// doubled since a series needs two points to be drawn.
func presentPoints(ts []time.Time, vals []*int) ([]time.Time, []float64) {
	var xs []time.Time
	var ys []float64
	for i, v := range vals {
		if v == nil {
			continue
		}
		xs = append(xs, ts[i])
		ys = append(ys, float64(*v))
	}
	if len(xs) == 1 {
		xs = append(xs, xs[0])
		ys = append(ys, ys[0])
	}
	return xs, ys
}

// coolingMarkers builds one full-height vertical line per cooling flag.
func coolingMarkers(s Series, yr *chart.ContinuousRange) []chart.Series {
	var out []chart.Series
	for i, on := range s.Cooling {
		if on == nil {
			continue
		}
		col := coolingOffColor
		if *on {
			col = coolingOnColor
		}
		t := s.Timestamps[i]
		out = append(out, chart.TimeSeries{
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 1},
			XValues: []time.Time{t, t},
			YValues: []float64{yr.Min, yr.Max},
		})
	}
	return out
}

func intValueFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(math.Round(f)))
	}
	return fmt.Sprint(v)
}

func blankPanel(w, h int, caption string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 96}),
		Face: basicfont.Face7x13,
	}
	tw := d.MeasureString(caption).Ceil()
	d.Dot = fixed.Point26_6{X: fixed.I((w - tw) / 2), Y: fixed.I(h / 2)}
	d.DrawString(caption)
	return img
}
