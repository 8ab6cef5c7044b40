package pipeline

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IndexRow is one filing entry from the yearly S3 index, reduced to the
// columns downstream steps use.
type IndexRow struct {
	ObjectID     string
	EIN          string
	TaxPeriod    string
	TaxpayerName string
	ReturnType   string
	SubDate      string
	DLN          string
}

var filteredIndexColumns = []string{
	"object_id", "ein", "tax_period", "taxpayer_name",
	"return_type", "sub_date", "dln",
}

// IndexBuilder downloads the yearly indexes and produces the filtered
// index of full Form 990 filings, optionally narrowed to known 501(c)(3)
// EINs from a previously built registry.
type IndexBuilder struct {
	fetcher  *Fetcher
	indexDir string
	orgsPath string // organizations.jsonl; empty or missing disables the EIN filter
}

// NewIndexBuilder creates a builder writing into indexDir.
func NewIndexBuilder(fetcher *Fetcher, indexDir, orgsPath string) *IndexBuilder {
	return &IndexBuilder{fetcher: fetcher, indexDir: indexDir, orgsPath: orgsPath}
}

// Build downloads the indexes for the given years and writes
// filtered_index.csv. Returns the output path and the number of rows kept.
// A year whose index cannot be fetched fails the build; partial indexes
// would silently shrink the corpus.
func (b *IndexBuilder) Build(ctx context.Context, years []int) (string, int, error) {
	einFilter, err := Load501c3EINs(b.orgsPath)
	if err != nil {
		return "", 0, fmt.Errorf("load EIN filter: %w", err)
	}

	var rows []IndexRow
	for _, year := range years {
		body, err := b.fetcher.Fetch(ctx, IndexURL(year))
		if err != nil {
			return "", 0, fmt.Errorf("download index for %d: %w", year, err)
		}
		yearRows, err := parseIndexCSV(body, einFilter)
		if err != nil {
			return "", 0, fmt.Errorf("parse index for %d: %w", year, err)
		}
		rows = append(rows, yearRows...)
	}

	if err := os.MkdirAll(b.indexDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create index dir: %w", err)
	}
	outPath := filepath.Join(b.indexDir, "filtered_index.csv")
	if err := writeFilteredIndex(outPath, rows); err != nil {
		return "", 0, err
	}
	return outPath, len(rows), nil
}

// parseIndexCSV keeps full Form 990 rows (not 990EZ/990PF/990O), applying
// the EIN filter when one is loaded. Header casing varies across years.
func parseIndexCSV(body []byte, einFilter map[string]bool) ([]IndexRow, error) {
	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []IndexRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if field(rec, "RETURN_TYPE") != "990" {
			continue
		}
		ein := padEIN(field(rec, "EIN"))
		if einFilter != nil && !einFilter[ein] {
			continue
		}
		rows = append(rows, IndexRow{
			ObjectID:     field(rec, "OBJECT_ID"),
			EIN:          ein,
			TaxPeriod:    field(rec, "TAX_PERIOD"),
			TaxpayerName: field(rec, "TAXPAYER_NAME"),
			ReturnType:   field(rec, "RETURN_TYPE"),
			SubDate:      field(rec, "SUB_DATE"),
			DLN:          field(rec, "DLN"),
		})
	}
	return rows, nil
}

func writeFilteredIndex(path string, rows []IndexRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(filteredIndexColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.ObjectID, row.EIN, row.TaxPeriod, row.TaxpayerName,
			row.ReturnType, row.SubDate, row.DLN,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}
	return f.Close()
}

// LoadFilteredIndex reads a previously built filtered_index.csv.
func LoadFilteredIndex(path string) ([]IndexRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []IndexRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, IndexRow{
			ObjectID:     field(rec, "object_id"),
			EIN:          field(rec, "ein"),
			TaxPeriod:    field(rec, "tax_period"),
			TaxpayerName: field(rec, "taxpayer_name"),
			ReturnType:   field(rec, "return_type"),
			SubDate:      field(rec, "sub_date"),
			DLN:          field(rec, "dln"),
		})
	}
	return rows, nil
}

// Load501c3EINs reads the EIN set from the registry JSONL. A missing file
// is not an error: the index filter is optional and the caller falls back
// to keeping every Form 990 filer.
func Load501c3EINs(path string) (map[string]bool, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	eins := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec struct {
			EIN string `json:"ein"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse registry line: %w", err)
		}
		if rec.EIN != "" {
			eins[padEIN(rec.EIN)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan registry: %w", err)
	}
	return eins, nil
}

// padEIN zero-pads to the canonical nine digits.
func padEIN(ein string) string {
	ein = strings.TrimSpace(ein)
	if len(ein) >= 9 || ein == "" {
		return ein
	}
	return strings.Repeat("0", 9-len(ein)) + ein
}
