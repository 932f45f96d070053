package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelWarn, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Discard()

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warning", "k", 1)
	Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("records below the level were written:\n%s", out)
	}
	if !strings.Contains(out, "shown warning") || !strings.Contains(out, "k=1") || !strings.Contains(out, "shown error") {
		t.Errorf("missing records:\n%s", out)
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "json", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Discard()

	With("run", "abc").Debug("phase", "tokens", 3)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("output is not one JSON record: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "phase" || rec["run"] != "abc" || rec["tokens"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestInitUnknownFormat(t *testing.T) {
	if err := Init(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInitLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tinypy.log")
	if err := Init(Config{Level: LevelInfo, Format: "text", LogFile: path}); err != nil {
		t.Fatalf("Init with log file: %v", err)
	}
	defer Discard()
	Info("to file")
}

func TestPhaseHelpers(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Discard()

	LogPhase("lex")
	LogLexing("prog.py", 12)
	LogParsing("prog.py", 7)
	LogRun("prog.py", 2)
	LogLowering("prog.py", 30)
	LogPhaseComplete("lex")
	LogError("run", "prog.py", 4, "boom")

	out := buf.String()
	for _, want := range []string{"tokens=12", "nodes=7", "globals=2", "lines=30", "phase=lex", "line=4", "message=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLogErrorStaysBelowWarn(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelWarn, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer Discard()

	LogError("run", "prog.py", 1, "integer division by zero")
	if buf.Len() != 0 {
		t.Errorf("phase failure logged at warn level:\n%s", buf.String())
	}
}
