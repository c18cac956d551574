// Package undolog records where organized files came from so a single undo
// run can move them back.
//
// The log is persisted as one JSON object whose keys are file names. A value
// is either the original path (the legacy form) or an object that also
// records where the file was moved to:
//
//	{
//	  "a.jpg": {"original": "/data/a.jpg", "destination": "/data/Images/a.jpg"},
//	  "b.txt": "/data/b.txt"
//	}
//
// Each save replaces the whole file. There is no history: the current log is
// the only one.
package undolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultPath is the well-known log location, relative to the working directory.
const DefaultPath = "undo_log.json"

// ErrNoUndoData is returned when no log exists on disk.
var ErrNoUndoData = errors.New("no undo data available")

// Entry maps a file name to where it was before the organize run.
type Entry struct {
	Name        string
	Original    string
	Destination string // empty for legacy entries
}

// Log is an ordered set of entries with unique names.
type Log struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty log.
func New() *Log {
	return &Log{index: make(map[string]int)}
}

// Record stores an entry for name. A name that is already present keeps its
// position but its paths are overwritten, so only the last original location
// for a name survives.
func (l *Log) Record(name, original, destination string) {
	entry := Entry{Name: name, Original: original, Destination: destination}

	if i, ok := l.index[name]; ok {
		l.entries[i] = entry
		return
	}

	l.index[name] = len(l.entries)
	l.entries = append(l.entries, entry)
}

// Lookup returns the entry recorded for name.
func (l *Log) Lookup(name string) (Entry, bool) {
	i, ok := l.index[name]
	if !ok {
		return Entry{}, false
	}

	return l.entries[i], true
}

// Entries returns a copy of the entries in record order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

type entryObject struct {
	Original    string `json:"original"`
	Destination string `json:"destination,omitempty"`
}

// MarshalJSON encodes the log in record order using the extended form.
func (l *Log) MarshalJSON() ([]byte, error) {
	return l.encode(true)
}

// UnmarshalJSON decodes either value form, keeping document order.
func (l *Log) UnmarshalJSON(data []byte) error {
	decoded, err := decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	*l = *decoded
	return nil
}

func (l *Log) encode(recordDestinations bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, entry := range l.entries {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("encode name %q: %w", entry.Name, err)
		}

		var value []byte
		if recordDestinations && entry.Destination != "" {
			value, err = json.Marshal(entryObject{Original: entry.Original, Destination: entry.Destination})
		} else {
			value, err = json.Marshal(entry.Original)
		}
		if err != nil {
			return nil, fmt.Errorf("encode entry %q: %w", entry.Name, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decode(r io.Reader) (*Log, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode undo log: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("decode undo log: expected a JSON object")
	}

	l := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode undo log: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode undo log: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode undo log entry %q: %w", name, err)
		}

		original, destination, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decode undo log entry %q: %w", name, err)
		}

		l.Record(name, original, destination)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode undo log: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode undo log: unexpected data after the object")
	}

	return l, nil
}

func decodeValue(raw json.RawMessage) (original, destination string, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", "", errors.New("empty value")
	}

	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &original); err != nil {
			return "", "", err
		}
		return original, "", nil
	case '{':
		var obj entryObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", "", err
		}
		if obj.Original == "" {
			return "", "", errors.New("missing original path")
		}
		return obj.Original, obj.Destination, nil
	default:
		return "", "", fmt.Errorf("unsupported value %s", raw)
	}
}

// SaveOptions controls the persisted form.
type SaveOptions struct {
	// RecordDestinations writes the extended object form. When false every
	// value is the bare original path.
	RecordDestinations bool
}

// Save writes the whole log to path, replacing any previous log. The file is
// written next to path and renamed into place.
func Save(path string, l *Log, opts SaveOptions) error {
	data, err := l.encode(opts.RecordDestinations)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create undo log: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write undo log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync undo log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close undo log: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace undo log: %w", err)
	}

	return nil
}

// Load reads the log at path. It returns ErrNoUndoData when the file does
// not exist.
func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoUndoData
		}
		return nil, fmt.Errorf("open undo log: %w", err)
	}
	defer f.Close()

	return decode(f)
}

// Exists reports whether a log is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the log at path. A missing log is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove undo log: %w", err)
	}

	return nil
}
