// Package payload moves request data to the engine through temporary files
// and turns the engine's stdout back into typed results.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPrefix = "stackbridge_"
	fileSuffix    = ".json"
)

// Channel writes payload files into a single directory. Every name carries a
// fresh UUID, so concurrent writers never share a file.
type Channel struct {
	dir    string
	prefix string
	newID  func() string
}

// New constructs a Channel rooted at dir (the OS temp dir when empty).
func New(dir, prefix string) *Channel {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	if strings.TrimSpace(prefix) == "" || strings.ContainsAny(prefix, `/\`) {
		prefix = DefaultPrefix
	}
	return &Channel{dir: dir, prefix: prefix, newID: uuid.NewString}
}

// Dir returns the directory payload files are written to.
func (c *Channel) Dir() string { return c.dir }

// Write serializes v and stores it in a new file, returning its path.
// The caller owns the file and must Remove it.
func (c *Channel) Write(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", &IOError{Op: "encode", Path: c.dir, Err: err}
	}

	path := filepath.Join(c.dir, c.prefix+c.newID()+fileSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", &IOError{Op: "create", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &IOError{Op: "close", Path: path, Err: err}
	}
	return path, nil
}

// Remove deletes a payload file. A file that is already gone is not an error.
func (c *Channel) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Read parses raw engine output as a single JSON object, rejects documents
// that declare an error, validates the rest against schema, and decodes into out.
func (c *Channel) Read(raw []byte, schema *Schema, out any) error {
	doc, err := extractDocument(raw)
	if err != nil {
		return &MalformedOutputError{Schema: schema.Name(), Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return &MalformedOutputError{Schema: schema.Name(), Err: fmt.Errorf("top-level value is not an object: %w", err)}
	}
	if msg, ok := declaredError(fields["error"]); ok {
		return &EngineReportedError{Message: msg}
	}

	violations, err := schema.validate(doc)
	if err != nil {
		return &MalformedOutputError{Schema: schema.Name(), Err: err}
	}
	if len(violations) > 0 {
		return &MalformedOutputError{Schema: schema.Name(), Violations: violations}
	}

	if err := json.Unmarshal(doc, out); err != nil {
		return &MalformedOutputError{Schema: schema.Name(), Err: err}
	}
	return nil
}

// extractDocument returns the JSON document in raw. Engines that log to stdout
// before printing their answer are tolerated by falling back to the last line.
func extractDocument(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrEmptyOutput
	}
	if json.Valid(trimmed) {
		return trimmed, nil
	}
	lines := bytes.Split(trimmed, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		if json.Valid(line) {
			return line, nil
		}
		break
	}
	return nil, errors.New("output is not valid JSON")
}

func declaredError(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		msg = strings.TrimSpace(msg)
		return msg, msg != ""
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" || text == "false" || text == `""` {
		return "", false
	}
	return text, true
}
