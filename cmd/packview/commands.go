package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"packview/cmd/packview/ui"
	"packview/cmd/packview/viewer"
	"packview/internal/export"
	"packview/internal/logging"
	"packview/internal/packing"
	"packview/internal/session"
	"packview/internal/watch"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// VIEW
// =============================================================================

func (a *app) viewCmd() *cobra.Command {
	var watchFile bool
	cmd := &cobra.Command{
		Use:   "view [shipment-id]",
		Short: "Open the interactive layer viewer",
		Long: `Opens the layer viewer. With a shipment id the layout is fetched
immediately; otherwise a search form is shown.

Keys: [ ] or pgdn/pgup change layer, arrows or hjkl move the cell cursor,
i or enter looks up the box under the cursor, y copies its id, n starts a
new search, q quits.

With --file the layout is read from disk; add --watch to reload it whenever
the file changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd, args, watchFile)
		},
	}
	cmd.Flags().BoolVar(&watchFile, "watch", false, "Reload --file when it changes")
	return cmd
}

func (a *app) runView(cmd *cobra.Command, args []string, watchFile bool) error {
	logger := a.logs.For(logging.CategoryViewer)

	sess, err := a.newSession()
	if err != nil {
		return err
	}
	fetcher, closeFetcher := a.fetcher()
	defer closeFetcher()

	opts := viewer.Options{
		Fetcher:      fetcher,
		Session:      sess,
		Styles:       ui.NewStyles(ui.ThemeFor(a.cfg.Viewer.Theme)),
		MaxCellWidth: a.cfg.Viewer.MaxCellWidth,
		Timeout:      a.cfg.GetServiceTimeout(),
		Logger:       logger,
	}
	if len(args) == 1 {
		opts.InitialID = args[0]
	}

	if a.layoutFile != "" {
		src := packing.FileSource{Path: a.layoutFile}
		if opts.InitialID == "" {
			opts.InitialID = src.ShipmentID()
		}
		if watchFile {
			w, err := watch.New(a.layoutFile, a.cfg.GetWatchDebounce(), a.logs.For(logging.CategoryWatch))
			if err != nil {
				return fmt.Errorf("watch %s: %w", a.layoutFile, err)
			}
			ctx, stop := signalContext()
			defer stop()
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("watch %s: %w", a.layoutFile, err)
			}
			defer w.Stop()
			opts.Reloads = w.Reloads()
		}
	} else if watchFile {
		return fmt.Errorf("--watch needs --file")
	}

	logger.Info("starting viewer", zap.String("initial_id", opts.InitialID))
	return viewer.Run(opts)
}

// =============================================================================
// RENDER
// =============================================================================

// fetched is one shipment loaded for batch output.
type fetched struct {
	id      string
	session *session.Session
	frames  []session.Frame
}

// fetchAll loads every id concurrently, each into its own session. Results
// keep argument order.
func (a *app) fetchAll(ctx context.Context, ids []string) ([]fetched, error) {
	fetcher, closeFetcher := a.fetcher()
	defer closeFetcher()

	out := make([]fetched, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.GetMaxConcurrentFetches())
	for i, id := range ids {
		sess, err := a.newSession()
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			grid, err := fetcher.FetchLayout(ctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if err := sess.Load(id, grid); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			frames, err := sess.RenderAll()
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			out[i] = fetched{id: id, session: sess, frames: frames}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// shipmentIDs returns the ids to load: args, or the --file name.
func (a *app) shipmentIDs(args []string) ([]string, error) {
	if a.layoutFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("shipment ids and --file are mutually exclusive")
		}
		return []string{packing.FileSource{Path: a.layoutFile}.ShipmentID()}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one shipment id is required")
	}
	return args, nil
}

func (a *app) renderCmd() *cobra.Command {
	var (
		layer   int
		summary bool
		width   int
	)
	cmd := &cobra.Command{
		Use:   "render [shipment-id...]",
		Short: "Print layers of one or more shipments",
		Long: `Fetches shipments concurrently and prints their layers to stdout,
bottom layer first, followed by a legend. With --summary only a Markdown
summary is printed.

Example:
  packview render SHIP-1A2B3C4D SHIP-5E6F7A8B --layer 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.shipmentIDs(args)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			results, err := a.fetchAll(ctx, ids)
			if err != nil {
				return err
			}
			styles := ui.NewStyles(ui.ThemeFor(a.cfg.Viewer.Theme))
			for _, r := range results {
				if summary {
					md := export.Summarize(r.session).Markdown()
					out, err := export.Terminal(md, width, "")
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), out)
					continue
				}
				cellWidth := max(a.cfg.Viewer.MaxCellWidth, ui.LabelWidth(r.session.Registry().Len()))
				if err := printLayers(cmd.OutOrStdout(), styles, r, layer, cellWidth); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&layer, "layer", -1, "Print only this layer (0 = bottom)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a Markdown summary instead of the grid")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --summary")
	return cmd
}

func printLayers(w io.Writer, styles ui.Styles, r fetched, layer, cellWidth int) error {
	frames := r.frames
	if layer >= 0 {
		if layer >= len(frames) {
			return fmt.Errorf("%s: layer %d out of range [0, %d)", r.id, layer, len(frames))
		}
		frames = frames[layer : layer+1]
	}
	fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("Shipment %s", r.id)))
	if len(frames) > 0 {
		fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("Container Size: %s", frames[0].Dims)))
	}
	for _, f := range frames {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.Subtitle.Render(fmt.Sprintf("Layer %d of %d", f.Layer+1, f.Dims.Height)))
		fmt.Fprintln(w, styles.RenderGrid(f, ui.GridOptions{CellWidth: cellWidth}))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.RenderLegend(r.session.Legend(), ui.LegendWidth))
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// exportFormats maps --format to file extensions.
var exportFormats = map[string]string{
	"png":  ".png",
	"html": ".html",
	"md":   ".md",
	"json": ".json",
	"zst":  ".json.zst",
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export [shipment-id...]",
		Short: "Write layers to PNG, HTML or Markdown, or save the raw layout",
		Long: `Fetches shipments and writes one file per shipment into --out.

Formats:
  png   contact sheet with every layer
  html  interactive chart page, one chart per layer
  md    Markdown summary with the box legend
  json  the layout as returned by the service, for --file
  zst   the same, zstd-compressed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, ok := exportFormats[format]
			if !ok {
				return fmt.Errorf("unknown format %q (want png, html, md, json or zst)", format)
			}
			if outDir == "" {
				outDir = a.cfg.Export.OutputDir
			}
			ids, err := a.shipmentIDs(args)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			results, err := a.fetchAll(ctx, ids)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			logger := a.logs.For(logging.CategoryExport)
			for _, r := range results {
				path := filepath.Join(outDir, fileName(r.id)+ext)
				if err := a.writeExport(path, format, r); err != nil {
					return fmt.Errorf("%s: %w", r.id, err)
				}
				logger.Info("exported", zap.String("shipment_id", r.id), zap.String("path", path))
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "png", "Output format: png, html, md, json, zst")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config)")
	return cmd
}

func (a *app) writeExport(path, format string, r fetched) (err error) {
	switch format {
	case "png":
		return export.SavePNG(path, r.frames, export.PNGOptions{
			CellSize: a.cfg.Export.CellSize,
			Columns:  a.cfg.Export.Columns,
		})
	case "json", "zst":
		return packing.WriteLayoutFile(path, r.session.Grid())
	}

	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()

	if format == "html" {
		theme := "white"
		if ui.ThemeFor(a.cfg.Viewer.Theme).IsDark {
			theme = "dark"
		}
		return export.WriteHTML(fh, r.frames, export.HTMLOptions{Theme: theme})
	}
	_, err = io.WriteString(fh, export.Summarize(r.session).Markdown())
	return err
}

// fileName makes a shipment id safe to use as a file name.
func fileName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < ' ':
			return '_'
		default:
			return r
		}
	}, id)
}

// =============================================================================
// SUBMIT
// =============================================================================

func (a *app) submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit [request.json]",
		Short: "Create a shipment from a container and box list",
		Long: `Validates a create-shipment request and sends it to the packing
service. Prints the new shipment id, which can then be passed to view.

The request is a JSON object:
  {"container": {"container_x": 10, "container_y": 10, "container_z": 10, "max_weight": 500},
   "boxes": [{"customer_id": "C1", "length": 2, "breadth": 2, "height": 1,
              "latitude": 0, "longitude": 0, "weight": 4.5, "fragile": false}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sr, err := packing.ReadRequestFile(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			c := packing.NewClient(a.cfg.Service.BaseURL, a.cfg.GetServiceTimeout(), a.logs.For(logging.CategoryFetch))
			defer c.Close()
			resp, err := c.SubmitShipment(ctx, sr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s (%d boxes)\n", resp.ShipmentID, resp.Message, resp.TotalBoxes)
			return nil
		},
	}
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shipments stored by the packing service, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			c := packing.NewClient(a.cfg.Service.BaseURL, a.cfg.GetServiceTimeout(), a.logs.For(logging.CategoryFetch))
			defer c.Close()
			shipments, err := c.ListShipments(ctx)
			if err != nil {
				return err
			}
			if len(shipments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no shipments")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("SHIPMENT", "BOXES", "CONTAINER", "STATUS", "CREATED")
			for _, s := range shipments {
				dims := fmt.Sprintf("%d × %d × %d", s.Container.ContainerX, s.Container.ContainerY, s.Container.ContainerZ)
				t.Row(s.ShipmentID, strconv.Itoa(s.TotalBoxes), dims, s.Status, s.CreatedAt)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func (a *app) boxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "box <box-id>",
		Short: "Show the stored details of one box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			c := packing.NewClient(a.cfg.Service.BaseURL, a.cfg.GetServiceTimeout(), a.logs.For(logging.CategoryFetch))
			defer c.Close()
			b, err := c.FetchBox(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.DescribeBox(b))
			return nil
		},
	}
}
