package job

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestDescriptorWriteAndParseRoundTrip(t *testing.T) {
	d := &Descriptor{}
	d.Add("Plugin", "Katana")
	d.Add("Name", "seq010 - beauty")
	d.Add("Comment", "first pass, needs review = later")
	d.AddInt("Priority", 50)
	d.AddBool("IsFrameDependent", true)
	d.Add("Whitelist", "")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	parsed, err := ParseDescriptor(&buf)
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	if parsed.Len() != d.Len() {
		t.Fatalf("parsed %d lines, want %d", parsed.Len(), d.Len())
	}
	for i, want := range d.Pairs() {
		got := parsed.Pairs()[i]
		if got != want {
			t.Fatalf("pair[%d] = %+v, want %+v", i, got, want)
		}
	}
	if comment, _ := parsed.Get("Comment"); comment != "first pass, needs review = later" {
		t.Fatalf("value containing '=' mangled: %q", comment)
	}
}

func TestDescriptorWritesBOM(t *testing.T) {
	d := &Descriptor{}
	d.Add("Plugin", "Katana")
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("output missing UTF-8 BOM: % x", buf.Bytes()[:6])
	}
}

func TestDescriptorBoolCapitalization(t *testing.T) {
	d := &Descriptor{}
	d.AddBool("A", true)
	d.AddBool("B", false)
	if v, _ := d.Get("A"); v != "True" {
		t.Fatalf("true rendered as %q, want True", v)
	}
	if v, _ := d.Get("B"); v != "False" {
		t.Fatalf("false rendered as %q, want False", v)
	}
}

func TestDescriptorAllowsDuplicateKeys(t *testing.T) {
	d := &Descriptor{}
	d.Add("BatchName", "first")
	d.Add("BatchName", "second")
	if d.Len() != 2 {
		t.Fatalf("duplicate keys collapsed: %d lines", d.Len())
	}
	if v, _ := d.Get("BatchName"); v != "first" {
		t.Fatalf("Get should return first occurrence, got %q", v)
	}
}

func TestParseDescriptorRejectsMalformedLine(t *testing.T) {
	_, err := ParseDescriptor(strings.NewReader("Plugin=Katana\nnot a pair\n"))
	if err == nil || !strings.Contains(err.Error(), "missing '='") {
		t.Fatalf("expected malformed line error, got %v", err)
	}
}

func TestDescriptorFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "katana_job_info.job")
	d := &Descriptor{}
	d.Add("Plugin", "Katana")
	d.Add("Frames", "1-100")
	if err := d.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	parsed, err := ReadDescriptorFile(path)
	if err != nil {
		t.Fatalf("ReadDescriptorFile: %v", err)
	}
	if frames, _ := parsed.Get("Frames"); frames != "1-100" {
		t.Fatalf("frames = %q", frames)
	}
}

func TestDescriptorFileNames(t *testing.T) {
	if got := InfoFileName(-1); got != "katana_job_info.job" {
		t.Fatalf("lone info name = %q", got)
	}
	if got := InfoFileName(2); got != "katana_job_info2.job" {
		t.Fatalf("indexed info name = %q", got)
	}
	if got := PluginFileName(-1); got != "katana_plugin_info.job" {
		t.Fatalf("lone plugin name = %q", got)
	}
	if got := PluginFileName(0); got != "katana_plugin_info0.job" {
		t.Fatalf("indexed plugin name = %q", got)
	}
}
