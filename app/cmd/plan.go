package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"terranova/app/usecase"
	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/render"
	"terranova/internal/infrastructure/share"
	"terranova/internal/infrastructure/store/memory"
)

// cliClientID identifies the single local user of the CLI.
const cliClientID = "cli"

func addFormFlags(fs *pflag.FlagSet, f *entity.PlanForm) {
	fs.StringVar(&f.Name, "name", "", "city name")
	fs.IntVar(&f.Population, "population", 1_000_000, "target population (50,000 to 30,000,000)")
	fs.StringVar(&f.Terrain, "terrain", "plains", "terrain: plains, coastal, mountain, desert, forest")
	fs.IntVar(&f.EcoPriority, "eco", 5, "eco priority 1-10")
	fs.IntVar(&f.Size, "size", 10, "grid size in blocks")
}

func addGridFlags(fs *pflag.FlagSet, f *entity.PlanForm) {
	fs.IntVar(&f.Width, "width", 0, "grid_plan width (default: size)")
	fs.IntVar(&f.Height, "height", 0, "grid_plan height (default: size)")
	fs.IntVar(&f.Parks, "parks", 0, "grid_plan park count")
	fs.IntVar(&f.Homes, "homes", 0, "grid_plan home count")
	fs.IntVar(&f.Roads, "roads", 0, "grid_plan road count")
	fs.IntVar(&f.Buildings, "buildings", 0, "grid_plan building count")
	fs.BoolVar(&f.Visuals, "visuals", false, "grid_plan: ask the backend for an HTML map")
	fs.Float64Var(&f.Area, "area", 0, "planner_plan area in km²")
	fs.StringVar(&f.SoilType, "soil", "", "planner_plan soil type")
	fs.StringVar(&f.Surroundings, "surroundings", "", "planner_plan surroundings")
}

type planOptions struct {
	form     entity.PlanForm
	variant  string
	fromLink string
	out      string
	pageURL  string
	copyLink bool
	reveal   bool
}

func planCmd(configPath *string) *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Request a city plan and draw it in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr)

			if opts.fromLink != "" {
				restored, ok := share.Restore(opts.fromLink, logger)
				if ok {
					opts.form = mergeForm(restored, opts.form, cmd.Flags())
				}
			}

			variant := cfg.Planner.Variant
			if opts.variant != "" {
				variant = opts.variant
			}
			v, err := entity.ParseVariant(variant)
			if err != nil {
				return err
			}

			pipeline, err := newPipeline(cfg, memory.NewSessionRepo(), logger)
			if err != nil {
				return err
			}
			step := cfg.Display.RevealStep
			if !opts.reveal {
				step = 0
			}
			return runPlan(cmd.Context(), cmd.OutOrStdout(), pipeline, usecase.NewRevealer(step), cfg.Display.ViewportWidth, v, opts, logger)
		},
	}

	addFormFlags(cmd.Flags(), &opts.form)
	addGridFlags(cmd.Flags(), &opts.form)
	cmd.Flags().StringVarP(&opts.variant, "variant", "v", "", "endpoint variant: generate_plan, grid_plan, planner_plan, text_plan")
	cmd.Flags().StringVar(&opts.fromLink, "from-link", "", "prefill the form from a share link")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the map PNG here (a directory gets <name>_map.png)")
	cmd.Flags().StringVar(&opts.pageURL, "page-url", "", "print a share link for this page")
	cmd.Flags().BoolVar(&opts.copyLink, "copy", false, "copy the share link to the clipboard")
	cmd.Flags().BoolVar(&opts.reveal, "reveal", true, "pace the panels like the web page does")
	return cmd
}

// mergeForm starts from a restored form and keeps the flags the user set
// explicitly.
func mergeForm(restored, flags entity.PlanForm, fs *pflag.FlagSet) entity.PlanForm {
	out := flags
	if !fs.Changed("name") {
		out.Name = restored.Name
	}
	if !fs.Changed("population") {
		out.Population = restored.Population
	}
	if !fs.Changed("terrain") {
		out.Terrain = restored.Terrain
	}
	if !fs.Changed("eco") {
		out.EcoPriority = restored.EcoPriority
	}
	if !fs.Changed("size") {
		out.Size = restored.Size
	}
	return out
}

func runPlan(
	ctx context.Context,
	w io.Writer,
	plans usecase.PlanUsecase,
	revealer *usecase.Revealer,
	viewportWidth int,
	v entity.Variant,
	opts planOptions,
	logger *slog.Logger,
) error {
	session, err := plans.Submit(ctx, cliClientID, v, opts.form)
	if err != nil {
		return err
	}

	term := render.NewTerminalRenderer()
	if session.Notice != "" {
		fmt.Fprintln(w, term.Notice(session.Notice))
		fmt.Fprintln(w)
	}

	renderer := render.NewGridRenderer(viewportWidth)
	d := &terminalDisplay{w: w, term: term, grid: session.Response.PlanGrid}
	if err := revealer.Reveal(ctx, session.Response, renderer, d); err != nil {
		return err
	}
	if session.Response.MapURL != "" {
		fmt.Fprintln(w, term.Notice("Map: "+session.Response.MapURL))
	}
	for _, issue := range session.Issues {
		logger.Warn("plan issue", "issue", issue.String())
	}

	if opts.out != "" {
		path, err := writeMap(opts.out, session, renderer)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, term.Notice("Map downloaded successfully! "+path))
	}

	if opts.pageURL != "" {
		link, err := share.Encode(opts.pageURL, session.Form)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, link)
		if opts.copyLink {
			if err := share.Copy(link); err != nil {
				return err
			}
			fmt.Fprintln(w, term.Notice("Link copied to clipboard!"))
		}
	}
	return nil
}

func writeMap(out string, session *entity.PlanSession, renderer *render.GridRenderer) (string, error) {
	surface, err := renderer.Render(session.Response)
	if err != nil {
		return "", fmt.Errorf("render map: %w", err)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, session.MapFileName())
	}
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", out, err)
	}
	if err := render.EncodePNG(f, surface); err != nil {
		_ = f.Close()
		return "", err
	}
	return out, f.Close()
}

// terminalDisplay prints each revealed panel as it arrives.
type terminalDisplay struct {
	w    io.Writer
	term *render.TerminalRenderer
	grid entity.Grid
	area render.MapArea
}

var _ usecase.Display = (*terminalDisplay)(nil)

func (d *terminalDisplay) ShowCityInfo(_ context.Context, p render.CityInfoPanel) error {
	_, err := fmt.Fprintf(d.w, "%s\n\n", d.term.CityInfo(p))
	return err
}

func (d *terminalDisplay) ShowMap(_ context.Context, s *render.Surface) error {
	grid, err := d.term.Grid(d.grid)
	if err != nil {
		return err
	}
	d.area.Show(s)
	_, err = fmt.Fprintf(d.w, "%s%s\n\n", grid, d.term.Legend(d.area.Legend()))
	return err
}

func (d *terminalDisplay) ShowMetrics(_ context.Context, cards []render.MetricCard) error {
	if len(cards) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(d.w, "%s\n\n", d.term.Metrics(cards))
	return err
}

func (d *terminalDisplay) ShowNotes(_ context.Context, notes []string) error {
	if len(notes) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(d.w, "%s\n", d.term.Notes(notes))
	return err
}
