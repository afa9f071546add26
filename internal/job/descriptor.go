package job

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// utf8BOM prefixes every descriptor file. Deadline's readers accept the
// mark, and legacy farm tooling expects it on files that may carry
// non-ASCII artist names and paths.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Pair is one key=value line of a job descriptor.
type Pair struct {
	Key   string
	Value string
}

// Descriptor is an ordered list of key=value lines destined for a Deadline
// job or plugin info file. Order is preserved exactly as written; duplicate
// keys are legal and later lines win on the farm side.
type Descriptor struct {
	pairs []Pair
}

// Add appends a key=value line.
func (d *Descriptor) Add(key, value string) {
	d.pairs = append(d.pairs, Pair{Key: key, Value: value})
}

// AddInt appends a line with an integer value.
func (d *Descriptor) AddInt(key string, value int) {
	d.Add(key, strconv.Itoa(value))
}

// AddBool appends a line with a boolean value. Deadline's reader expects
// the True/False capitalization.
func (d *Descriptor) AddBool(key string, value bool) {
	if value {
		d.Add(key, "True")
	} else {
		d.Add(key, "False")
	}
}

// AddPairs appends a batch of lines in order.
func (d *Descriptor) AddPairs(pairs []Pair) {
	d.pairs = append(d.pairs, pairs...)
}

// Len returns the number of lines.
func (d *Descriptor) Len() int {
	return len(d.pairs)
}

// Pairs returns a copy of the lines in write order.
func (d *Descriptor) Pairs() []Pair {
	out := make([]Pair, len(d.pairs))
	copy(out, d.pairs)
	return out
}

// Get returns the first value recorded for key.
func (d *Descriptor) Get(key string) (string, bool) {
	for _, pair := range d.pairs {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

// WriteTo writes the BOM followed by one key=value line per pair.
func (d *Descriptor) WriteTo(w io.Writer) (int64, error) {
	var written int64
	n, err := w.Write(utf8BOM)
	written += int64(n)
	if err != nil {
		return written, err
	}
	for _, pair := range d.pairs {
		n, err := fmt.Fprintf(w, "%s=%s\n", pair.Key, pair.Value)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteFile writes the descriptor to path, replacing any previous file.
func (d *Descriptor) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("job: create %s: %w", path, err)
	}
	if _, err := d.WriteTo(file); err != nil {
		file.Close()
		return fmt.Errorf("job: write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("job: close %s: %w", path, err)
	}
	return nil
}

// ParseDescriptor reads key=value lines back into a Descriptor. A leading
// BOM is stripped and blank lines are skipped.
func ParseDescriptor(r io.Reader) (*Descriptor, error) {
	d := &Descriptor{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = string(bytes.TrimPrefix([]byte(line), utf8BOM))
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("job: line %d: missing '=' in %q", lineNo, line)
		}
		d.Add(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("job: read descriptor: %w", err)
	}
	return d, nil
}

// ReadDescriptorFile loads a descriptor file from disk.
func ReadDescriptorFile(path string) (*Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("job: open %s: %w", path, err)
	}
	defer file.Close()
	d, err := ParseDescriptor(file)
	if err != nil {
		return nil, fmt.Errorf("job: %s: %w", path, err)
	}
	return d, nil
}

// InfoFileName returns the job info file name for a submission slot. A
// negative index means a lone job with no numbered suffix.
func InfoFileName(index int) string {
	if index >= 0 {
		return fmt.Sprintf("katana_job_info%d.job", index)
	}
	return "katana_job_info.job"
}

// PluginFileName returns the plugin info file name for a submission slot.
func PluginFileName(index int) string {
	if index >= 0 {
		return fmt.Sprintf("katana_plugin_info%d.job", index)
	}
	return "katana_plugin_info.job"
}
