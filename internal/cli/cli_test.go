package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/observability"
)

func TestMain(m *testing.M) {
	statusOut = io.Discard
	os.Exit(m.Run())
}

// testCLI returns a CLI with a silent logger, output captured in the
// returned buffer, and XDG directories inside a temp dir.
func testCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))

	c := New(io.Discard, log.InfoLevel)
	var out bytes.Buffer
	c.SetOutput(&out)
	return c, &out
}

func testItems(n int) []tile.Item {
	kinds := []tile.Kind{tile.KindImage, tile.KindImage, tile.KindVideo, tile.KindFrame}
	out := make([]tile.Item, n)
	for i := range out {
		out[i] = tile.Item{
			ID:          fmt.Sprintf("it-%03d", i),
			AspectRatio: []float64{1, 1.5, 0.75, 16.0 / 9}[i%4],
			Kind:        kinds[i%len(kinds)],
		}
	}
	return out
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c, _ := testCLI(t)
	root := c.RootCommand()

	want := []string{"generate", "layout", "browse", "serve", "cache", "config", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestCompletion(t *testing.T) {
	c, out := testCLI(t)
	if err := execute(t, c, "completion", "bash"); err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(out.String(), "flashlight") {
		t.Error("completion script does not mention flashlight")
	}
	if err := execute(t, c, "completion", "tcsh"); err == nil {
		t.Error("completion accepted an unknown shell")
	}
}

func TestSetLogLevelInstallsHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	c := New(io.Discard, log.InfoLevel)

	c.SetLogLevel(log.InfoLevel)
	if _, ok := observability.Grid().(gridLogHooks); ok {
		t.Fatal("info level installed log hooks")
	}
	c.SetLogLevel(log.DebugLevel)
	if _, ok := observability.Grid().(gridLogHooks); !ok {
		t.Error("debug level did not install grid hooks")
	}
	if _, ok := observability.Cache().(cacheLogHooks); !ok {
		t.Error("debug level did not install cache hooks")
	}
	if _, ok := observability.HTTP().(httpLogHooks); !ok {
		t.Error("debug level did not install http hooks")
	}
}
