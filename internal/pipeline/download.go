package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// checkpointName tracks which object IDs are already on disk so an
// interrupted download run resumes instead of restarting.
const checkpointName = ".downloaded"

// Downloader fetches return XML for index rows into the local XML
// directory, bounded by a worker limit and the fetcher's per-host rate
// limit.
type Downloader struct {
	fetcher *Fetcher
	xmlDir  string
	workers int
}

// NewDownloader creates a downloader writing into xmlDir.
func NewDownloader(fetcher *Fetcher, xmlDir string, workers int) *Downloader {
	if workers <= 0 {
		workers = 1
	}
	return &Downloader{fetcher: fetcher, xmlDir: xmlDir, workers: workers}
}

// Run downloads every not-yet-downloaded row. limit > 0 caps the number
// attempted (useful for smoke runs); force ignores the checkpoint.
// Individual download failures are counted, not fatal; the returned
// counts are (downloaded, failed).
func (d *Downloader) Run(ctx context.Context, rows []IndexRow, limit int, force bool) (int, int, error) {
	if err := os.MkdirAll(d.xmlDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create xml dir: %w", err)
	}

	done := map[string]bool{}
	if !force {
		var err error
		done, err = d.loadCheckpoint()
		if err != nil {
			return 0, 0, err
		}
	}

	var pending []IndexRow
	for _, row := range rows {
		if row.ObjectID == "" || done[row.ObjectID] {
			continue
		}
		pending = append(pending, row)
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	ckpt, err := os.OpenFile(d.checkpointPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, 0, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() { _ = ckpt.Close() }()
	var ckptMu sync.Mutex

	var downloaded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, row := range pending {
		row := row
		g.Go(func() error {
			body, err := d.fetcher.Fetch(gctx, ReturnXMLURL(row.ObjectID))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				return nil
			}
			dest := filepath.Join(d.xmlDir, row.ObjectID+"_public.xml")
			if err := writeFileAtomic(dest, body); err != nil {
				return err
			}
			ckptMu.Lock()
			_, werr := fmt.Fprintln(ckpt, row.ObjectID)
			ckptMu.Unlock()
			if werr != nil {
				return fmt.Errorf("append checkpoint: %w", werr)
			}
			downloaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(downloaded.Load()), int(failed.Load()), err
	}
	return int(downloaded.Load()), int(failed.Load()), nil
}

func (d *Downloader) checkpointPath() string {
	return filepath.Join(d.xmlDir, checkpointName)
}

func (d *Downloader) loadCheckpoint() (map[string]bool, error) {
	f, err := os.Open(d.checkpointPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() { _ = f.Close() }()

	done := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			done[id] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return done, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dl-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}
