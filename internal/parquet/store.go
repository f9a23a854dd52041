package parquet

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/finbench/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

// Required panel columns.
const (
	ColUniqueID = "unique_id"
	ColDS       = "ds"
	ColY        = "y"
)

// readBatchSize is the number of rows pulled per ReadRows call.
const readBatchSize = 1024

// PanelRecord is the on-disk row layout used when writing panels.
type PanelRecord struct {
	UniqueID string    `parquet:"unique_id,snappy,dict"`
	DS       time.Time `parquet:"ds,snappy"`
	Y        float64   `parquet:"y,snappy"`
}

// LoadResult is the outcome of reading a panel file.
type LoadResult struct {
	Panel       *schema.Panel
	AllNaN      []string // series that lost every row to the NaN drop
	RowsRead    int
	RowsDropped int
}

// SeriesIn is the number of distinct series present in the file.
func (r *LoadResult) SeriesIn() int {
	return r.Panel.NumSeries() + len(r.AllNaN)
}

// OpenPanel opens the panel file of a dataset.
func OpenPanel(desc schema.DatasetDescriptor) (*LoadResult, error) {
	res, err := ReadPanel(desc.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", desc.Name, err)
	}
	return res, nil
}

// panelColumns holds the resolved leaf columns and how to decode ds.
type panelColumns struct {
	id, ds, y int
	idKind    parquet.Kind
	dsKind    parquet.Kind
	yKind     parquet.Kind
	dsDecode  func(parquet.Value) (time.Time, bool)
}

// ReadPanel reads a long-format panel, dropping rows whose ds or y is missing
// or NaN, and returns it sorted by (unique_id, ds).
func ReadPanel(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", schema.ErrDatasetMissing, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a readable parquet file: %v", schema.ErrDatasetSchema, path, err)
	}

	cols, err := resolveColumns(pf.Schema())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrDatasetSchema, path, err)
	}

	reader := parquet.NewReader(pf)
	defer func() { _ = reader.Close() }()

	res := &LoadResult{}
	seen := make(map[string]struct{})
	rows := make([]parquet.Row, readBatchSize)
	var kept []schema.Row
	for {
		n, readErr := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			res.RowsRead++
			r, ok, err := cols.decode(row)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", schema.ErrDatasetSchema, path, err)
			}
			seen[r.UniqueID] = struct{}{}
			if !ok {
				res.RowsDropped++
				continue
			}
			kept = append(kept, r)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read rows from %s: %w", path, readErr)
		}
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows with both ds and y", schema.ErrDatasetEmpty, path)
	}

	res.Panel = schema.NewPanel(kept)
	for id := range seen {
		if _, ok := res.Panel.Lookup(id); !ok {
			res.AllNaN = append(res.AllNaN, id)
		}
	}
	slices.Sort(res.AllNaN)
	return res, nil
}

// resolveColumns finds the three required leaves and checks their types.
func resolveColumns(s *parquet.Schema) (*panelColumns, error) {
	lookup := func(name string) (parquet.LeafColumn, error) {
		leaf, ok := s.Lookup(name)
		if !ok {
			return leaf, fmt.Errorf("required column %q not found", name)
		}
		if leaf.MaxRepetitionLevel > 0 {
			return leaf, fmt.Errorf("column %q must not be repeated", name)
		}
		return leaf, nil
	}

	id, err := lookup(ColUniqueID)
	if err != nil {
		return nil, err
	}
	ds, err := lookup(ColDS)
	if err != nil {
		return nil, err
	}
	y, err := lookup(ColY)
	if err != nil {
		return nil, err
	}

	cols := &panelColumns{
		id:     id.ColumnIndex,
		ds:     ds.ColumnIndex,
		y:      y.ColumnIndex,
		idKind: id.Node.Type().Kind(),
		dsKind: ds.Node.Type().Kind(),
		yKind:  y.Node.Type().Kind(),
	}

	switch cols.idKind {
	case parquet.ByteArray, parquet.FixedLenByteArray, parquet.Int32, parquet.Int64:
	default:
		return nil, fmt.Errorf("column %q has unsupported type %v", ColUniqueID, cols.idKind)
	}
	switch cols.yKind {
	case parquet.Double, parquet.Float, parquet.Int32, parquet.Int64:
	default:
		return nil, fmt.Errorf("column %q has unsupported type %v", ColY, cols.yKind)
	}

	decode, err := timestampDecoder(ds.Node.Type().LogicalType(), cols.dsKind)
	if err != nil {
		return nil, err
	}
	cols.dsDecode = decode
	return cols, nil
}

// timestampDecoder returns a converter for the ds column. Timestamps are read
// as timezone-naive wall clock in UTC.
func timestampDecoder(lt *format.LogicalType, kind parquet.Kind) (func(parquet.Value) (time.Time, bool), error) {
	switch {
	case kind == parquet.Int64 && lt != nil && lt.Timestamp != nil:
		unit := lt.Timestamp.Unit
		switch {
		case unit.Millis != nil:
			return func(v parquet.Value) (time.Time, bool) { return time.UnixMilli(v.Int64()).UTC(), true }, nil
		case unit.Micros != nil:
			return func(v parquet.Value) (time.Time, bool) { return time.UnixMicro(v.Int64()).UTC(), true }, nil
		default:
			return func(v parquet.Value) (time.Time, bool) { return time.Unix(0, v.Int64()).UTC(), true }, nil
		}
	case kind == parquet.Int32 && lt != nil && lt.Date != nil:
		return func(v parquet.Value) (time.Time, bool) {
			return time.Unix(int64(v.Int32())*86400, 0).UTC(), true
		}, nil
	case kind == parquet.Int64:
		// Plain int64 is taken as nanoseconds since the epoch.
		return func(v parquet.Value) (time.Time, bool) { return time.Unix(0, v.Int64()).UTC(), true }, nil
	default:
		return nil, fmt.Errorf("column %q must be a timestamp, date, or int64, got %v", ColDS, kind)
	}
}

// decode extracts one panel row. ok is false when ds or y is missing.
func (c *panelColumns) decode(row parquet.Row) (schema.Row, bool, error) {
	var (
		r             schema.Row
		haveDS, haveY bool
	)
	r.Y = math.NaN()
	for _, v := range row {
		switch v.Column() {
		case c.id:
			if v.IsNull() {
				return r, false, fmt.Errorf("null %s", ColUniqueID)
			}
			switch c.idKind {
			case parquet.Int32:
				r.UniqueID = strconv.FormatInt(int64(v.Int32()), 10)
			case parquet.Int64:
				r.UniqueID = strconv.FormatInt(v.Int64(), 10)
			default:
				r.UniqueID = string(v.ByteArray())
			}
		case c.ds:
			if !v.IsNull() {
				r.DS, haveDS = c.dsDecode(v)
			}
		case c.y:
			if v.IsNull() {
				continue
			}
			switch c.yKind {
			case parquet.Double:
				r.Y = v.Double()
			case parquet.Float:
				r.Y = float64(v.Float())
			case parquet.Int32:
				r.Y = float64(v.Int32())
			case parquet.Int64:
				r.Y = float64(v.Int64())
			}
			haveY = !math.IsNaN(r.Y)
		}
	}
	return r, haveDS && haveY, nil
}

// WritePanel writes a panel in the canonical (unique_id, ds, y) layout.
func WritePanel(path string, p *schema.Panel) error {
	records := make([]PanelRecord, p.Len())
	for i := range records {
		records[i] = PanelRecord{UniqueID: p.UniqueID[i], DS: p.DS[i], Y: p.Y[i]}
	}
	return WriteParquet(path, records)
}
