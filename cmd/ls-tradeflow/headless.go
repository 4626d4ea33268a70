package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/config"
	"github.com/litescript/ls-tradeflow/internal/geo"
	"github.com/litescript/ls-tradeflow/internal/logging"
	"github.com/litescript/ls-tradeflow/internal/mapview"
	"github.com/litescript/ls-tradeflow/internal/render"
	"github.com/litescript/ls-tradeflow/internal/state"
)

const (
	defaultMiniCols = 100
	minMiniCols     = 20
)

// runHeadless renders a single static frame and exits. Logs go to stderr.
func runHeadless(ctx context.Context, cli CLI, cfg config.Config, loader *catalog.Loader, stateMgr *state.Manager, logger *logging.Logger) error {
	logger.SetOutput(os.Stderr)

	result := loader.Load(ctx)
	stateMgr.Update(result.Catalog, result.Duration, result.Error)
	if result.Error != nil {
		return fmt.Errorf("load catalog: %w", result.Error)
	}
	logger.Debug("Catalog loaded from %s in %v", result.Source, result.Duration)

	scene := mapview.NewScene(result.Catalog)
	scene.Projection = geo.ParseProjection(cfg.Map.Projection)

	sel := mapview.NewSelection(nil)
	if err := preselect(&sel, result.Catalog, cli.Select); err != nil {
		return err
	}
	// Static output has no particles.
	anim := mapview.NewAnimator(true)

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	if cli.MiniMap {
		cols := cli.Cols
		if cols <= 0 {
			cols = defaultMiniCols
			if isTTY {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
					cols = w
				}
			}
		}
		cols = max(cols, minMiniCols)
		rows := cols / 4

		vp := mapview.NewViewport()
		vp.SetLayout(float64(cols*render.DotsPerCellX), float64(rows*render.DotsPerCellY))
		canvas := render.Braille(scene.Render(vp, sel, anim), vp, cols, rows)
		if isTTY {
			fmt.Println(canvas.String())
		} else {
			fmt.Println(canvas.Plain())
		}
		writeLegend(os.Stdout, result.Catalog, isTTY)
	}

	if cli.Summary {
		if cli.MiniMap {
			fmt.Println()
		}
		state.WriteSummaryTable(os.Stdout, stateMgr.Snapshot())
	}

	if cli.JSON {
		if err := state.ExportSnapshot(stateMgr.Snapshot()).WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}

	if cli.SVG != "" {
		vp := mapview.NewViewport()
		vp.SetLayout(float64(cli.Width), float64(cli.Height))
		dl := scene.Render(vp, sel, anim)
		if err := writeSVGFile(cli.SVG, dl, cli.Width, cli.Height); err != nil {
			return err
		}
		logger.Debug("Wrote %d draw items to %s", len(dl.Items), cli.SVG)
	}
	return nil
}

// preselect selects ids in order: the first replaces the selection, the
// rest are added as with a modifier click.
func preselect(sel *mapview.Selection, c *catalog.Catalog, ids []string) error {
	n := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := c.Route(id); !ok {
			return fmt.Errorf("unknown route %q", id)
		}
		sel.Click(id, n > 0)
		n++
	}
	return nil
}

func writeSVGFile(path string, dl mapview.DrawList, width, height int) error {
	if path == "-" {
		return render.WriteSVG(os.Stdout, dl, width, height, "Global trade routes")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	if err := render.WriteSVG(f, dl, width, height, "Global trade routes"); err != nil {
		f.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	return f.Close()
}

// writeLegend prints route counts per risk level.
func writeLegend(w io.Writer, c *catalog.Catalog, color bool) {
	counts := c.RiskCounts()
	parts := make([]string, 0, catalog.NumRiskLevels)
	for r := catalog.RiskLow; r <= catalog.RiskCritical; r++ {
		label := fmt.Sprintf("● %s %d", r, counts[r])
		if color {
			label = lipgloss.NewStyle().
				Foreground(lipgloss.Color(mapview.RiskColor(r).Hex())).
				Render(label)
		}
		parts = append(parts, label)
	}
	fmt.Fprintf(w, "%s   %d routes · %d chokepoints\n",
		strings.Join(parts, "  "), len(c.Routes), len(c.Chokepoints))
}
