package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/litescript/ls-tradeflow/internal/mapview"
)

// svgUnit scales world coordinates onto svgo's integer grid.
const svgUnit = 10

func su(v float64) int {
	return int(math.Round(v * svgUnit))
}

// WriteSVG writes a draw list as a standalone SVG document of width x height
// pixels whose viewBox is the draw list's view box.
func WriteSVG(w io.Writer, dl mapview.DrawList, width, height int, title string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid svg size %dx%d", width, height)
	}
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	vb := dl.ViewBox
	canvas.Startview(width, height, su(vb.X), su(vb.Y), su(vb.Width), su(vb.Height))
	if title != "" {
		canvas.Title(title)
	}
	canvas.Rect(su(vb.X), su(vb.Y), su(vb.Width), su(vb.Height),
		"fill:"+mapview.Paint{Color: mapview.Background, Alpha: 1}.Hex())

	for _, it := range dl.PaintOrder() {
		switch it.Kind {
		case mapview.ItemGraticule, mapview.ItemRoute:
			c := it.Curve
			canvas.Qbez(su(c.P0.X), su(c.P0.Y), su(c.Ctrl.X), su(c.Ctrl.Y), su(c.P1.X), su(c.P1.Y),
				strokeStyle(it))
		case mapview.ItemParticle:
			canvas.Circle(su(it.Center.X), su(it.Center.Y), su(it.Radius), fillStyle(it.Paint))
		case mapview.ItemMarker:
			x, y := su(it.Center.X), su(it.Center.Y)
			if it.Glow {
				glow := mapview.Paint{Color: it.Paint.Color, Alpha: 0.25}
				canvas.Circle(x, y, su(it.Radius+mapview.GlowBlur/2), fillStyle(glow))
			}
			canvas.Circle(x, y, su(it.Ring), fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:0.6;stroke-width:%d",
				mapview.Paint{Color: mapview.RingColor}.Hex(), su(1)))
			canvas.Circle(x, y, su(it.Radius), fillStyle(it.Paint))
		}
	}
	canvas.End()
	return ew.err
}

func strokeStyle(it mapview.DrawItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fill:none;stroke:%s;stroke-opacity:%.2f;stroke-width:%d;stroke-linecap:round",
		it.Paint.Hex(), it.Paint.Alpha, su(it.Width))
	if len(it.Dash) > 0 {
		parts := make([]string, len(it.Dash))
		for i, d := range it.Dash {
			parts[i] = fmt.Sprint(su(d))
		}
		sb.WriteString(";stroke-dasharray:" + strings.Join(parts, ","))
	}
	return sb.String()
}

func fillStyle(p mapview.Paint) string {
	return fmt.Sprintf("fill:%s;fill-opacity:%.2f", p.Hex(), p.Alpha)
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
