package app

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/zurustar/blockstep/pkg/interpreter"
)

func testPrograms() fstest.MapFS {
	return fstest.MapFS{
		"programs/line.yaml": {Data: []byte("name: line\nprogram: [forward3]\n")},
		"programs/turn.cue":  {Data: []byte("program: [\"left90\", \"forward1\"]\nstart: {x: 5, y: 5}\n")},
		"programs/bad.yaml":  {Data: []byte("program: [forward1, jump]\n")},
	}
}

// clearEnv 設定に影響する環境変数を空にする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HEADLESS", "TIMEOUT", "LOG_LEVEL", "SOUNDFONT", "LANG"} {
		t.Setenv(key, "")
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)
	var out bytes.Buffer
	app := New(testPrograms())
	app.out = &out
	err := app.Run(append([]string{"--log-level", "error"}, args...))
	return out.String(), err
}

func TestRun_Headless(t *testing.T) {
	out, err := runApp(t, "--headless", "--step-time", "1", "line")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "forward 3 squares\nat D1 facing east\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRun_HeadlessLanguage(t *testing.T) {
	out, err := runApp(t, "--headless", "--step-time", "1", "--lang", "fr", "turn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(out, "en E4, orienté vers nord\n") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_HeadlessRobot(t *testing.T) {
	out, err := runApp(t, "--headless", "--step-time", "1", "--robot", "fake", "line")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(out, "at D1 facing east\n") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_HeadlessError(t *testing.T) {
	_, err := runApp(t, "--headless", "--step-time", "1", "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if !interpreter.IsUnknownCommand(err) {
		t.Errorf("expected unknown command error, got %v", err)
	}
}

func TestRun_ListPrograms(t *testing.T) {
	out, err := runApp(t, "--list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "bad\nline\nturn\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"無効な引数", []string{"--speed", "9"}, "failed to parse args"},
		{"存在しないプログラム", []string{"--headless", "missing"}, "failed to load program"},
		{"デフォルトのサンプルがない", []string{"--headless"}, "failed to load program"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
