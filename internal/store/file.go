package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/product"
	"pricewatch/internal/snapshot"

	"github.com/shopspring/decimal"
)

const (
	report_file_load_snapshot = "file.load-snapshot"
	report_file_last_run      = "file.last-run"
	report_file_commit        = "file.commit"
)

const (
	SnapshotFilename = "precios.json"
	LastRunFilename  = "last_run.json"
)

type lastRunDocument struct {
	LastRun time.Time `json:"last_run"`
}

// FileStore keeps the snapshot as a flat json object of `"<category>_<name>": price`
// and the last run as a json document with a single ISO-8601 timestamp.
type FileStore struct {
	snapshotPath string
	lastRunPath  string
	tel          telemetry.API
}

// NewFileStore creates a store writing into `dir`.
func NewFileStore(dir string, tel telemetry.API) (FileStore, error) {
	assert.NotNil(tel)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FileStore{}, err
	}
	return FileStore{
		snapshotPath: filepath.Join(dir, SnapshotFilename),
		lastRunPath:  filepath.Join(dir, LastRunFilename),
		tel:          telemetry.NewScopedAPI("store", tel),
	}, nil
}

func (s FileStore) LoadSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	contents, err := os.ReadFile(s.snapshotPath)
	if os.IsNotExist(err) {
		return snapshot.New(), nil
	}
	if err != nil {
		s.tel.ReportBroken(report_file_load_snapshot, fmt.Errorf("%w: read: %w", ErrCorrupt, err), s.snapshotPath)
		return snapshot.New(), nil
	}
	contents = bytes.TrimSpace(contents)
	if len(contents) == 0 {
		return snapshot.New(), nil
	}

	snap, err := decodeSnapshot(contents, s.tel)
	if err != nil {
		s.tel.ReportBroken(report_file_load_snapshot, err, s.snapshotPath)
		return snapshot.New(), nil
	}
	return snap, nil
}

func decodeSnapshot(contents []byte, tel telemetry.API) (*snapshot.Snapshot, error) {
	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.UseNumber()

	var raw map[string]json.Number
	err := decoder.Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrCorrupt, err)
	}

	snap := snapshot.New()
	for rawKey, rawPrice := range raw {
		key, err := product.ParseKey(rawKey)
		if err != nil {
			tel.ReportWarning(report_file_load_snapshot, err)
			continue
		}
		amount, err := decimal.NewFromString(rawPrice.String())
		if err != nil {
			tel.ReportWarning(report_file_load_snapshot, fmt.Errorf("parse price of %s: %w", rawKey, err))
			continue
		}
		if !amount.IsPositive() {
			tel.ReportWarning(report_file_load_snapshot, fmt.Errorf("non-positive price stored for %s", rawKey), amount.String())
		}
		snap.Upsert(key, amount)
	}
	return snap, nil
}

func encodeSnapshot(snap *snapshot.Snapshot) ([]byte, error) {
	raw := map[string]json.Number{}
	for key, amount := range snap.Entries() {
		raw[key.String()] = json.Number(amount.StringFixed(2))
	}
	return json.MarshalIndent(raw, "", "  ")
}

func (s FileStore) LastRun(ctx context.Context) (time.Time, bool, error) {
	contents, err := os.ReadFile(s.lastRunPath)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_file_last_run, err)
		return time.Time{}, false, err
	}

	var doc lastRunDocument
	err = json.Unmarshal(contents, &doc)
	if err != nil {
		s.tel.ReportBroken(report_file_last_run, fmt.Errorf("%w: %w", ErrCorrupt, err))
		return time.Time{}, false, nil
	}
	if doc.LastRun.IsZero() {
		return time.Time{}, false, nil
	}
	return doc.LastRun, true, nil
}

func (s FileStore) Commit(ctx context.Context, snap *snapshot.Snapshot, completedAt time.Time) error {
	encodedSnapshot, err := encodeSnapshot(snap)
	if err != nil {
		s.tel.ReportBroken(report_file_commit, fmt.Errorf("encode snapshot: %w", err))
		return err
	}
	encodedLastRun, err := json.MarshalIndent(lastRunDocument{LastRun: completedAt}, "", "  ")
	if err != nil {
		s.tel.ReportBroken(report_file_commit, fmt.Errorf("encode last run: %w", err))
		return err
	}

	err = writeFileAtomic(s.snapshotPath, encodedSnapshot)
	if err != nil {
		s.tel.ReportBroken(report_file_commit, fmt.Errorf("write snapshot: %w", err))
		return err
	}
	err = writeFileAtomic(s.lastRunPath, encodedLastRun)
	if err != nil {
		s.tel.ReportBroken(report_file_commit, fmt.Errorf("write last run: %w", err))
		return err
	}

	s.tel.ReportDebug("commit", snap.Len(), completedAt)
	return nil
}

func (s FileStore) Close() error {
	return nil
}

// writeFileAtomic writes to a temporary file in the same directory and
// renames it over the target so readers never observe a partial file.
func writeFileAtomic(path string, contents []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
