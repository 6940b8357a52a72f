package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

// maxLine bounds one JSONL record, payload included.
const maxLine = 4 << 20

// ReadJSONL reads one item per line. Blank lines are skipped. Items are
// validated and normalized; duplicate ids are rejected.
func ReadJSONL(r io.Reader) ([]tile.Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var (
		items []tile.Item
		seen  = make(map[string]int)
		line  int
	)
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var it tile.Item
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidItem, err, "line %d", line)
		}
		if err := it.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidItem, err, "line %d", line)
		}
		if !it.Kind.Valid() && it.Kind != "" {
			return nil, errors.New(errors.ErrCodeUnknownKind, "line %d: unknown kind %q", line, it.Kind)
		}
		if prev, ok := seen[it.ID]; ok {
			return nil, errors.New(errors.ErrCodeInvalidItem, "line %d: duplicate id %q (first on line %d)", line, it.ID, prev)
		}
		seen[it.ID] = line
		items = append(items, it.Normalize())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return items, nil
}

// WriteJSONL writes one item per line.
func WriteJSONL(w io.Writer, items []tile.Item) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("encode %s: %w", it.ID, err)
		}
	}
	return bw.Flush()
}

// ImportJSONL reads items from a file.
func ImportJSONL(path string) ([]tile.Item, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f)
}

// ExportJSONL writes items to a file.
func ExportJSONL(path string, items []tile.Item) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSONL(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
