package logger

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// restoreGlobals puts the discard logger back once a test that calls Init ends.
func restoreGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		Log = zap.NewNop()
		Sugar = Log.Sugar()
	})
}

// readEntries decodes one JSON object per line of the file at path.
func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var entries []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return entries
}

func TestNewConsoleFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("spawn details")
	log.Info("character spawned")
	log.Warn("snap missed")
	log.Error("frame write failed")

	out := buf.String()
	for _, hidden := range []string{"spawn details", "character spawned"} {
		if strings.Contains(out, hidden) {
			t.Errorf("%q is below warn and should be filtered:\n%s", hidden, out)
		}
	}
	for _, shown := range []string{"snap missed", "frame write failed", "WARN", "ERROR"} {
		if !strings.Contains(out, shown) {
			t.Errorf("expected %q in console output:\n%s", shown, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("expected 2 console lines, got %d", n)
	}
}

func TestNewFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringwalk.log")
	log, err := New(Options{Level: "debug", File: FileConfig{Path: path, MaxSizeMB: 1}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("tick", zap.Uint64("tick", 3))
	log.Named("world").Info("character died", zap.String("character", "bob"))
	_ = log.Sync()

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first, second := entries[0], entries[1]
	if first["level"] != "DEBUG" || first["msg"] != "tick" || first["tick"] != float64(3) {
		t.Errorf("unexpected first entry: %v", first)
	}
	if second["level"] != "INFO" || second["logger"] != "world" || second["character"] != "bob" {
		t.Errorf("unexpected second entry: %v", second)
	}
	for i, e := range entries {
		if e["time"] == nil {
			t.Errorf("entry %d has no time", i)
		}
		caller, _ := e["caller"].(string)
		if !strings.HasPrefix(caller, "logger/") {
			t.Errorf("entry %d caller = %q, want a short caller in this package", i, caller)
		}
	}
}

func TestNewTeesConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "tee.log")
	log, err := New(Options{Level: "info", Console: &buf, File: FileConfig{Path: path, MaxSizeMB: 1}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("run finished", zap.Int("ticks", 60))
	_ = log.Sync()

	if !strings.Contains(buf.String(), "run finished") {
		t.Errorf("console missed the entry: %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("console output should not be JSON: %q", buf.String())
	}
	entries := readEntries(t, path)
	if len(entries) != 1 || entries[0]["ticks"] != float64(60) {
		t.Errorf("file entries = %v", entries)
	}
}

func TestNewFileRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ringwalk.log")
	log, err := New(Options{Level: "info", File: FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 3}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// About 1.5MB of frames so the active file rolls over once.
	payload := strings.Repeat("x", 1024)
	for i := 0; i < 1500; i++ {
		log.Info("frame", zap.Int("tick", i), zap.String("payload", payload))
	}
	_ = log.Sync()

	files, err := filepath.Glob(filepath.Join(dir, "ringwalk*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("expected the active file plus a backup, got %v", files)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat active file: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("active file is %d bytes, larger than MaxSizeMB", info.Size())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "verbose", Console: io.Discard}); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := InitWithFileConfig("loud", FileConfig{}, false); err == nil {
		t.Error("expected Init to reject unknown level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "info"},
		{" WARN ", "warn"},
		{"debug", "debug"},
		{"error", "error"},
	}
	for _, tt := range tests {
		lvl, err := parseLevel(tt.in)
		if err != nil {
			t.Errorf("parseLevel(%q): %v", tt.in, err)
			continue
		}
		if lvl.String() != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %s", tt.in, lvl, tt.want)
		}
	}
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	log, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zap.DebugLevel) {
		t.Error("expected a no-op logger when no output is configured")
	}
}

func TestDefaultFileConfigKeepsPath(t *testing.T) {
	cfg := DefaultFileConfig("/var/log/ringwalk.log")
	want := FileConfig{Path: "/var/log/ringwalk.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if cfg != want {
		t.Errorf("DefaultFileConfig = %+v, want %+v", cfg, want)
	}
}

func TestInitConsoleGoesToStderr(t *testing.T) {
	restoreGlobals(t)
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	if err := Init("info", ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Named("cmd").Info("simulation starting")
	Log.Debug("hidden at info")
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read stderr: %v", err)
	}
	if !strings.Contains(string(out), "simulation starting") || !strings.Contains(string(out), "cmd") {
		t.Errorf("stderr = %q, want the named info entry", out)
	}
	if strings.Contains(string(out), "hidden at info") {
		t.Errorf("debug entry leaked at info level: %q", out)
	}
}

func TestInitWithFileConfigReplacesGlobals(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "global.log")
	if err := InitWithFileConfig("warn", FileConfig{Path: path, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("InitWithFileConfig: %v", err)
	}
	if Log.Core().Enabled(zap.InfoLevel) {
		t.Error("global logger should drop info at warn level")
	}

	Sugar.Infof("dropped %d", 1)
	Sugar.Warnf("kept %d", 2)
	Named("sim").Error("sink closed")
	Sync()

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	if entries[0]["msg"] != "kept 2" {
		t.Errorf("sugared entry = %v", entries[0])
	}
	if entries[1]["logger"] != "sim" || entries[1]["level"] != "ERROR" {
		t.Errorf("named entry = %v", entries[1])
	}
}
