package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/relex/logcore/format"
	"github.com/relex/logcore/record"
)

// RotationRule selects which condition(s) trigger file rotation.
type RotationRule int

const (
	// RotationNone disables rotation; the file grows without bound.
	RotationNone RotationRule = iota
	// RotationSize rotates once the file reaches MaxSizeBytes.
	RotationSize
	// RotationTime rotates once RotationInterval has elapsed since the last rotation.
	RotationTime
	// RotationSizeAndTime rotates on whichever condition is met first.
	RotationSizeAndTime
)

// FileConfig configures a File sink.
type FileConfig struct {
	Path             string
	Rule             RotationRule
	MaxSizeBytes     int64
	RotationInterval time.Duration
	MaxBackups       int // negative disables backup deletion entirely
	CompressBackups  bool
	Filter           *NameFilter
}

// File writes formatted records to a path on disk, optionally rotating by size and/or time and
// compressing rotated backups to .gz, grounded on the reference rotateFile/cleanupAndCompress
// Backups/compressLogFile sequence.
type File struct {
	mu            sync.Mutex
	cfg           FileConfig
	file          *os.File
	currentSize   atomic.Int64
	lastRotatedAt time.Time
	errors        atomic.Int64
}

// NewFile opens (creating if needed) the file at cfg.Path for appending and returns a ready File
// sink.
func NewFile(cfg FileConfig) (*File, error) {
	f := &File{cfg: cfg, lastRotatedAt: time.Now()}
	if err := f.openLocked(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) openLocked() error {
	fh, err := os.OpenFile(f.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, statErr := fh.Stat()
	if statErr == nil {
		f.currentSize.Store(info.Size())
	}
	f.file = fh
	return nil
}

// Name implements sink.Sink.
func (f *File) Name() string {
	return f.cfg.Path
}

// Emit implements sink.Sink.
func (f *File) Emit(rec *record.Record, formatter format.Format) error {
	if !f.cfg.Filter.Match(rec.LoggerName()) {
		return nil
	}
	out, err := formatter.FormatRecord(rec)
	if err != nil {
		f.errors.Add(1)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shouldRotateLocked() {
		if err := f.rotateLocked(); err != nil {
			f.errors.Add(1)
			return err
		}
	}

	n, err := f.file.Write(out)
	if err != nil {
		f.errors.Add(1)
		return err
	}
	f.currentSize.Add(int64(n))
	return nil
}

// Time-based rotation applies only when Rule is RotationTime or RotationSizeAndTime; each rule is
// its own switch case, so a size-only rule never rotates on time. A same-named reference sink had
// an operator-precedence bug that rotated on time even when time-rotation was not selected. Not
// reproduced here.
func (f *File) shouldRotateLocked() bool {
	switch f.cfg.Rule {
	case RotationSize:
		return f.cfg.MaxSizeBytes > 0 && f.currentSize.Load() >= f.cfg.MaxSizeBytes
	case RotationTime:
		return f.cfg.RotationInterval > 0 && time.Since(f.lastRotatedAt) >= f.cfg.RotationInterval
	case RotationSizeAndTime:
		bySize := f.cfg.MaxSizeBytes > 0 && f.currentSize.Load() >= f.cfg.MaxSizeBytes
		byTime := f.cfg.RotationInterval > 0 && time.Since(f.lastRotatedAt) >= f.cfg.RotationInterval
		return bySize || byTime
	default:
		return false
	}
}

func (f *File) rotateLocked() error {
	if f.file != nil {
		_ = f.file.Close()
	}

	ext := filepath.Ext(f.cfg.Path)
	base := strings.TrimSuffix(f.cfg.Path, ext)
	timestamp := time.Now().Format("20060102_150405_000")
	backupPath := fmt.Sprintf("%s.%s%s", base, timestamp, ext)

	if err := os.Rename(f.cfg.Path, backupPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := f.openLocked(); err != nil {
		return err
	}
	f.currentSize.Store(0)
	f.lastRotatedAt = time.Now()

	if f.cfg.MaxBackups >= 0 {
		go f.cleanupAndCompressBackups(filepath.Dir(f.cfg.Path), filepath.Base(base), ext, backupPath)
	}
	return nil
}

type backupEntry struct {
	path    string
	modTime time.Time
}

func (f *File) cleanupAndCompressBackups(dir, baseName, ext, justRotated string) {
	pattern := filepath.Join(dir, fmt.Sprintf("%s.*%s", baseName, ext))
	files, err := filepath.Glob(pattern)
	if err != nil {
		return
	}

	var backups []backupEntry
	for _, path := range files {
		if filepath.Base(path) == filepath.Base(f.cfg.Path) {
			continue
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		backups = append(backups, backupEntry{path: path, modTime: info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].modTime.Before(backups[j].modTime) })

	if f.cfg.CompressBackups {
		for _, b := range backups {
			if b.path == justRotated || strings.HasSuffix(b.path, ".gz") {
				continue
			}
			if err := compressFile(b.path); err == nil {
				_ = os.Remove(b.path)
			}
		}
		files, _ = filepath.Glob(pattern)
		backups = backups[:0]
		for _, path := range files {
			if filepath.Base(path) == filepath.Base(f.cfg.Path) {
				continue
			}
			info, statErr := os.Stat(path)
			if statErr != nil {
				continue
			}
			backups = append(backups, backupEntry{path: path, modTime: info.ModTime()})
		}
		sort.Slice(backups, func(i, j int) bool { return backups[i].modTime.Before(backups[j].modTime) })
	}

	if f.cfg.MaxBackups >= 0 && len(backups) > f.cfg.MaxBackups {
		for _, b := range backups[:len(backups)-f.cfg.MaxBackups] {
			_ = os.Remove(b.path)
		}
	}
}

// compressFile gzips srcPath to srcPath+".gz" using klauspost/compress/gzip, a drop-in faster
// replacement for compress/gzip that the teacher already depends on for its own chunk compression.
func compressFile(srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := srcPath + ".gz"
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}

	success := false
	defer func() {
		dst.Close()
		if !success {
			_ = os.Remove(dstPath)
		}
	}()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	success = true
	return nil
}

// Flush syncs the file to disk.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// ErrorCount returns the number of Emit calls that failed.
func (f *File) ErrorCount() int64 {
	return f.errors.Load()
}
