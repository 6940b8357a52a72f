package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/pkg/grid"
	"github.com/matzehuels/flashlight/pkg/grid/frame"
	"github.com/matzehuels/flashlight/pkg/grid/headless"
	"github.com/matzehuels/flashlight/pkg/grid/render"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/source"
)

// One terminal cell stands for this many layout pixels.
const (
	cellWidth  = 8
	cellHeight = 16
)

// chrome is the number of lines used by the header and footer.
const chrome = 2

var kindGlyphs = map[tile.Kind]rune{
	tile.KindImage: '█',
	tile.KindVideo: '▓',
	tile.KindFrame: '▒',
}

// browseCommand creates the browse command, an interactive terminal host.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		sf sourceFlags
		gf gridFlags
	)

	cmd := &cobra.Command{
		Use:   "browse [items.jsonl|items.db|URL]",
		Short: "Scroll through a catalogue in the terminal",
		Long: `Scroll through a catalogue in the terminal.

Every terminal cell stands for 8x16 layout pixels. Items are drawn only
while their section is on screen and pages are fetched as you approach
the end.

Keys:
  j/k, ↑/↓       scroll a line
  space/b        scroll a page
  g/G            jump to top/bottom
  +/-            raise/lower the row aspect ratio threshold
  r              retry a failed fetch
  ctrl+r         reload from the first page
  q              quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var location string
			if len(args) == 1 {
				location = args[0]
			}
			cfg, err := c.resolveConfig(&sf, &gf, location)
			if err != nil {
				return err
			}
			return c.runBrowse(cmd.Context(), cfg, sf.refresh)
		},
	}
	sf.register(cmd)
	gf.register(cmd)
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, cfg Config, refresh bool) error {
	src, closeSrc, err := c.openSource(ctx, cfg, refresh)
	if err != nil {
		return err
	}
	defer closeSrc()

	// The terminal belongs to the TUI; keep engine logs quiet unless verbose.
	logger := c.Logger.With()
	if logger.GetLevel() > log.DebugLevel {
		logger.SetLevel(log.ErrorLevel)
	}

	m, err := newBrowseModel(ctx, src, cfg.Grid, logger)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if bm, ok := final.(*browseModel); ok && bm.err != nil {
		printWarning("last fetch failed: %v", bm.err)
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

type queueMsg struct{}

// browseModel hosts the engine inside the bubbletea loop. Every engine call
// happens in Update, which bubbletea runs on one goroutine.
type browseModel struct {
	ctx   context.Context
	name  string
	q     *frame.Queue
	surf  *headless.Surface
	board *board
	eng   *grid.Engine[string]

	cols, lines int
	err         error
	note        string
}

func newBrowseModel(ctx context.Context, src source.Source, gc GridConfig, logger *log.Logger) (*browseModel, error) {
	m := &browseModel{
		ctx:   ctx,
		name:  src.Name(),
		q:     frame.NewQueue(),
		surf:  headless.NewSurface(0, 0),
		board: newBoard(),
	}
	opts := gc.Options
	eng, err := grid.New(grid.Config[string]{
		Fetcher:        source.Fetcher(src, gc.PageSize),
		Renderer:       m.board.mux(),
		Scheduler:      m.q,
		Options:        &opts,
		RowsPerSection: gc.RowsPerSection,
		Logger:         logger,
		OnError:        func(err error) { m.err = err },
	})
	if err != nil {
		return nil, err
	}
	m.eng = eng
	return m, nil
}

func (m *browseModel) Init() tea.Cmd { return m.wait() }

// wait blocks off the UI goroutine until engine work is queued.
func (m *browseModel) wait() tea.Cmd {
	q, ctx := m.q, m.ctx
	return func() tea.Msg {
		if err := q.Wait(ctx); err != nil {
			return nil
		}
		return queueMsg{}
	}
}

// drain runs queued engine work on the UI goroutine.
func (m *browseModel) drain() {
	m.q.RunTasks()
	m.q.Tick()
	m.q.RunTasks()
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case queueMsg:
		m.drain()
		return m, m.wait()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.key(msg.String()) {
			if m.eng.IsAttached() {
				_ = m.eng.Detach()
			}
			return m, tea.Quit
		}
	}
	m.drain()
	return m, nil
}

func (m *browseModel) resize(cols, lines int) {
	m.cols, m.lines = cols, max(lines-chrome, 1)
	w, h := float64(m.cols*cellWidth), float64(m.lines*cellHeight)
	m.surf.SetSize(w, h)
	if !m.eng.IsAttached() {
		if err := m.eng.Attach(m.surf); err != nil {
			m.err = err
		}
		return
	}
	m.eng.Resize(w)
}

// key handles one key press and reports whether to quit.
func (m *browseModel) key(k string) bool {
	page := float64(m.lines * cellHeight)
	m.note = ""
	switch k {
	case "q", "ctrl+c", "esc":
		return true
	case "j", "down":
		m.surf.ScrollBy(cellHeight)
	case "k", "up":
		m.surf.ScrollBy(-cellHeight)
	case " ", "pgdown", "f":
		m.surf.ScrollBy(page)
	case "b", "pgup":
		m.surf.ScrollBy(-page)
	case "g", "home":
		m.surf.ScrollTo(0)
	case "G", "end":
		m.surf.ScrollTo(m.surf.ContentHeight())
	case "+", "=":
		m.setThreshold(m.eng.Options().RowAspectRatioThreshold + 1)
	case "-", "_":
		m.setThreshold(m.eng.Options().RowAspectRatioThreshold - 1)
	case "r":
		m.err = nil
		m.eng.Retry()
	case "ctrl+r":
		m.err = nil
		if err := m.eng.Reset(); err != nil {
			m.err = err
		}
	}
	return false
}

func (m *browseModel) setThreshold(v float64) {
	if err := m.eng.UpdateOptions(grid.OptionsPatch{RowAspectRatioThreshold: &v}); err != nil {
		m.note = "threshold must stay positive"
		return
	}
	m.note = fmt.Sprintf("threshold %.0f", v)
}

func (m *browseModel) View() string {
	if m.cols == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	b.WriteString(m.board.paint(m.surf.ScrollTop(), m.cols, m.lines))
	b.WriteString(m.footer())
	return b.String()
}

func (m *browseModel) header() string {
	items := 0
	sections := m.eng.Sections()
	for _, s := range sections {
		items += len(s.Placements())
	}
	status := m.eng.Status().String()
	line := fmt.Sprintf(" %s  %s", StyleTitle.Render(appName), StyleDim.Render(m.name))
	stats := fmt.Sprintf("%d items · %d sections · %d mounted · %s", items, len(sections), m.board.len(), status)
	return line + "  " + StyleDim.Render(stats)
}

func (m *browseModel) footer() string {
	switch {
	case m.err != nil:
		return styleIconError.Render(iconError) + " " + StyleWarning.Render(m.err.Error()) + StyleDim.Render("  r retry")
	case m.note != "":
		return StyleHighlight.Render(" " + m.note)
	}
	return StyleDim.Render(" j/k scroll · space page · g/G ends · +/- threshold · q quit")
}

// =============================================================================
// Board - a renderer that draws into terminal cells
// =============================================================================

type cell struct {
	item tile.Item
	rect render.Rect
}

// board holds every mounted cell. Each kind gets a painter that shares it.
type board struct {
	live map[*cell]struct{}
}

func newBoard() *board { return &board{live: make(map[*cell]struct{})} }

func (b *board) len() int { return len(b.live) }

func (b *board) mux() *render.Mux {
	strategies := make(map[tile.Kind]render.Renderer, len(tile.Kinds))
	for _, k := range tile.Kinds {
		strategies[k] = painter{b: b, kind: k}
	}
	return render.NewMux(strategies)
}

// painter mounts cells of one kind.
type painter struct {
	b    *board
	kind tile.Kind
}

func (p painter) Render(item tile.Item, at render.Mount) (render.Handle, error) {
	c := &cell{item: item, rect: at.Rect}
	p.b.live[c] = struct{}{}
	return c, nil
}

func (p painter) Unmount(h render.Handle) {
	if c, ok := h.(*cell); ok {
		delete(p.b.live, c)
	}
}

func (p painter) Move(h render.Handle, to render.Mount) {
	if c, ok := h.(*cell); ok {
		c.rect = to.Rect
	}
}

// paint draws the cells visible from pixel offset top into cols×lines
// terminal cells.
func (b *board) paint(top float64, cols, lines int) string {
	canvas := make([][]tile.Kind, lines)
	for i := range canvas {
		canvas[i] = make([]tile.Kind, cols)
	}
	bottom := top + float64(lines*cellHeight)
	for c := range b.live {
		r := c.rect
		if r.Bottom() <= top || r.Y >= bottom {
			continue
		}
		x0, x1 := span(r.X, r.Right(), cellWidth, cols)
		y0, y1 := span(r.Y-top, r.Bottom()-top, cellHeight, lines)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				canvas[y][x] = c.item.Kind
			}
		}
	}

	var out strings.Builder
	for _, row := range canvas {
		writeRow(&out, row)
		out.WriteByte('\n')
	}
	return out.String()
}

// span maps a pixel interval onto cell indices within [0, limit), leaving
// the trailing cell empty as a gutter when the interval covers more than one.
func span(from, to float64, size, limit int) (int, int) {
	a := int(math.Floor(from / float64(size)))
	z := int(math.Floor(to / float64(size)))
	if z-a > 1 {
		z--
	}
	if z <= a {
		z = a + 1
	}
	return max(a, 0), min(z, limit)
}

// writeRow writes one canvas row, styling runs of the same kind together.
func writeRow(out *strings.Builder, row []tile.Kind) {
	for i := 0; i < len(row); {
		j := i
		for j < len(row) && row[j] == row[i] {
			j++
		}
		if row[i] == "" {
			out.WriteString(strings.Repeat(" ", j-i))
		} else {
			out.WriteString(kindStyles[row[i]].Render(strings.Repeat(string(kindGlyphs[row[i]]), j-i)))
		}
		i = j
	}
}
