// Package audit writes committed interactions to hourly zstd-compressed JSONL
// files, one object per line, for offline analysis outside the database.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/gridyield/internal/ir"
)

const hourLayout = "2006-01-02-15"

// Journal appends interactions to <dir>/<prefix>-<yyyy-mm-dd-hh>.jsonl.zst.
// The file is chosen by the interaction's timestamp, so replays land in the
// same files as the original run.
type Journal struct {
	dir    string
	prefix string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewJournal creates a journal under dir. Files are created on first write.
func NewJournal(dir, prefix string) *Journal {
	if prefix == "" {
		prefix = "interactions"
	}
	return &Journal{dir: dir, prefix: prefix}
}

// Record appends one interaction and flushes it to the compressor.
func (j *Journal) Record(in ir.Interaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := in.At.UTC().Format(hourLayout)
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return fmt.Errorf("journal rotate: %w", err)
		}
	}

	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("journal encode: %w", err)
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

// Close finishes the current zstd frame and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		err = j.w.Flush()
	}
	if j.enc != nil {
		err = errors.Join(err, j.enc.Close())
		j.enc = nil
	}
	if j.f != nil {
		err = errors.Join(err, j.f.Close())
		j.f = nil
	}
	j.w = nil
	j.curHour = ""
	return err
}

func (j *Journal) pathForHour(hour string) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
}

// Files lists the journal files under dir in chronological order.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile decodes every interaction in a journal file. Files appended to by
// several runs hold several zstd frames; they decode as one stream.
func ReadFile(path string) ([]ir.Interaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer dec.Close()

	return decode(dec)
}

func decode(r io.Reader) ([]ir.Interaction, error) {
	var out []ir.Interaction
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var in ir.Interaction
		if err := json.Unmarshal(sc.Bytes(), &in); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", len(out)+1, err)
		}
		out = append(out, in)
	}
	return out, sc.Err()
}
