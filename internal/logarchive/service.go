// Package logarchive ingests zipped device log uploads, serves them back as
// archives and prunes old files.
package logarchive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

var (
	// ErrArchiveParse means the upload was not a readable zip archive.
	ErrArchiveParse = errors.New("log archive not parseable")
	// ErrNoLogs means no log files exist for the device.
	ErrNoLogs = errors.New("no logs for device")
	// ErrInvalidDeviceName rejects names that would escape the log root.
	ErrInvalidDeviceName = errors.New("invalid device name")
)

// IngestReport summarizes one processed upload.
type IngestReport struct {
	EntriesWritten int64 `json:"entriesWritten"`
	EntriesSkipped int64 `json:"entriesSkipped"`
}

// Service stores device logs as flat files under <root>/<device>/. Each zip
// entry is appended to a per-day file named <entry>.<YYYY-MM-DD>, so repeated
// uploads on the same day accumulate instead of overwriting.
type Service struct {
	logger        zerolog.Logger
	root          string
	retentionDays int
	now           func() time.Time
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	Logger        zerolog.Logger
	Root          string
	RetentionDays int
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewService creates a log archive service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		logger:        cfg.Logger.With().Str("component", "logarchive").Logger(),
		root:          cfg.Root,
		retentionDays: cfg.RetentionDays,
		now:           now,
	}
}

// Ingest reads a zip upload and appends its entries to the device's log
// files. The upload is spooled to a temp file first so large archives never
// sit in memory. An unreadable archive fails the whole upload; a bad single
// entry is logged and skipped.
func (s *Service) Ingest(ctx context.Context, deviceName string, r io.Reader) (*IngestReport, error) {
	if err := validateDeviceName(deviceName); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "devicelogs-*.zip")
	if err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}

	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrArchiveParse, err)
	}

	dir := filepath.Join(s.root, deviceName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating device log directory: %w", err)
	}

	day := s.now().Format("2006-01-02")
	var report IngestReport
	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		if err := s.appendEntry(dir, entry, day); err != nil {
			s.logger.Warn().Err(err).
				Str("device", deviceName).
				Str("entry", entry.Name).
				Msg("skipping log entry")
			report.EntriesSkipped++
			continue
		}
		report.EntriesWritten++
	}

	s.logger.Info().
		Str("device", deviceName).
		Int64("written", report.EntriesWritten).
		Int64("skipped", report.EntriesSkipped).
		Msg("log upload processed")

	return &report, nil
}

func (s *Service) appendEntry(dir string, entry *zip.File, day string) error {
	// Entry paths inside the archive are untrusted.
	name := path.Base(entry.Name)
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return fmt.Errorf("unusable entry name %q", entry.Name)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening entry: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(dir, name+"."+day), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("appending entry: %w", err)
	}
	return nil
}

// ArchiveName is the download filename for a device's log bundle.
func ArchiveName(deviceName string) string {
	return deviceName + "-logs.zip"
}

// Retrieve streams all of a device's log files as one zip archive.
func (s *Service) Retrieve(ctx context.Context, deviceName string, w io.Writer) error {
	if err := validateDeviceName(deviceName); err != nil {
		return err
	}

	dir := filepath.Join(s.root, deviceName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoLogs
		}
		return fmt.Errorf("reading device log directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return ErrNoLogs
	}

	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFileToArchive(zw, dir, name); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func addFileToArchive(zw *zip.Writer, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}

// RetentionSweep deletes log files older than the retention window, by
// modification time. It is safe to run repeatedly; a pass with nothing to
// delete is a no-op.
func (s *Service) RetentionSweep(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	var deleted int64
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		s.logger.Info().Str("path", p).Time("mod_time", info.ModTime()).Msg("expired log file deleted")
		deleted++
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("retention sweep: %w", err)
	}
	return deleted, nil
}

func validateDeviceName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ErrInvalidDeviceName
	}
	return nil
}
