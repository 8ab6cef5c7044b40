package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// RegistryBuilder downloads the 52 EO BMF state extracts, keeps the
// 501(c)(3) records (SUBSECTION 3), and writes the organization registry
// as JSONL. The registry later narrows the filing index and serves as
// downstream join material.
type RegistryBuilder struct {
	fetcher *Fetcher
	workers int
	outPath string
}

// NewRegistryBuilder creates a builder writing organizations.jsonl at
// outPath.
func NewRegistryBuilder(fetcher *Fetcher, workers int, outPath string) *RegistryBuilder {
	if workers <= 0 {
		workers = 10
	}
	return &RegistryBuilder{fetcher: fetcher, workers: workers, outPath: outPath}
}

// Build downloads and parses every state extract. Returns the number of
// organizations written. Any state failing to download fails the build:
// a registry silently missing a state would filter out its filers.
func (b *RegistryBuilder) Build(ctx context.Context) (int, error) {
	bodies := make(map[string][]byte, len(bmfStateCodes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, code := range bmfStateCodes {
		code := code
		g.Go(func() error {
			body, err := b.fetcher.Fetch(gctx, bmfURL(code))
			if err != nil {
				return fmt.Errorf("download BMF %s: %w", code, err)
			}
			mu.Lock()
			bodies[code] = body
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Parse in sorted state order so the output is stable across runs.
	codes := make([]string, 0, len(bodies))
	for code := range bodies {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var orgs []model.Organization
	for _, code := range codes {
		parsed, err := parseBMFCSV(bodies[code])
		if err != nil {
			return 0, fmt.Errorf("parse BMF %s: %w", code, err)
		}
		orgs = append(orgs, parsed...)
	}

	if err := os.MkdirAll(filepath.Dir(b.outPath), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(b.outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", b.outPath, err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for i := range orgs {
		if err := enc.Encode(&orgs[i]); err != nil {
			return 0, fmt.Errorf("write organization: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", b.outPath, err)
	}
	return len(orgs), nil
}

// parseBMFCSV keeps 501(c)(3) rows. The extracts store the subsection
// zero-padded ("03"), but the bare form shows up too.
func parseBMFCSV(body []byte) ([]model.Organization, error) {
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

	var orgs []model.Organization
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		sub := field(rec, "SUBSECTION")
		if sub != "3" && sub != "03" {
			continue
		}
		orgs = append(orgs, model.Organization{
			EIN:               padEIN(field(rec, "EIN")),
			Name:              optStr(field(rec, "NAME")),
			SortName:          optStr(field(rec, "SORT_NAME")),
			Street:            optStr(field(rec, "STREET")),
			City:              optStr(field(rec, "CITY")),
			State:             optStr(field(rec, "STATE")),
			Zip:               optStr(field(rec, "ZIP")),
			Subsection:        optInt(sub),
			Classification:    optStr(field(rec, "CLASSIFICATION")),
			NTEECode:          optStr(field(rec, "NTEE_CD")),
			FoundationCode:    optInt(field(rec, "FOUNDATION")),
			Affiliation:       optInt(field(rec, "AFFILIATION")),
			OrganizationType:  optInt(field(rec, "ORGANIZATION")),
			Status:            optInt(field(rec, "STATUS")),
			RulingDate:        optRulingDate(field(rec, "RULING")),
			Deductibility:     optInt(field(rec, "DEDUCTIBILITY")),
			AssetCode:         optInt(field(rec, "ASSET_CD")),
			AssetAmount:       optInt(field(rec, "ASSET_AMT")),
			IncomeCode:        optInt(field(rec, "INCOME_CD")),
			IncomeAmount:      optInt(field(rec, "INCOME_AMT")),
			RevenueAmount:     optInt(field(rec, "REVENUE_AMT")),
			TaxPeriod:         optInt(field(rec, "TAX_PERIOD")),
			FilingRequirement: optStr(field(rec, "FILING_REQ_CD")),
			ActivityCodes:     optStr(field(rec, "ACTIVITY")),
			GroupNumber:       optStr(field(rec, "GROUP")),
			AccountingPeriod:  optInt(field(rec, "ACCT_PD")),
		})
	}
	return orgs, nil
}

func optStr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optInt(v string) *int64 {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// optRulingDate normalizes the YYYYMM ruling date to YYYY-MM. Zero means
// no ruling on record.
func optRulingDate(v string) *string {
	if len(v) != 6 || v == "000000" {
		return nil
	}
	if _, err := strconv.Atoi(v); err != nil {
		return nil
	}
	d := v[:4] + "-" + v[4:]
	return &d
}
