package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestBackendLevels(t *testing.T) {
	backend := NewBackend()
	var all, warnings bytes.Buffer
	if err := backend.AddLogWriter(&all, LevelDebug); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.AddLogWriter(&warnings, LevelWarn); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	log := backend.Logger("TEST")
	log.Infof("dropped before run")

	if err := backend.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}
	if err := backend.Run(); err == nil {
		t.Fatalf("Expected a second Run to fail")
	}
	if err := backend.AddLogWriter(&all, LevelTrace); err == nil {
		t.Fatalf("Expected AddLogWriter to fail on a running backend")
	}

	log.Infof("off by default")
	log.SetLevel(LevelDebug)
	log.Tracef("trace %d", 1)
	log.Debugf("debug %d", 2)
	log.Warnf("warn %d", 3)
	backend.Close()
	backend.Close()
	log.Errorf("dropped after close")

	tests := []struct {
		output   string
		expected []string
		absent   []string
	}{
		{
			output:   all.String(),
			expected: []string{"[DBG] TEST: debug 2", "[WRN] TEST: warn 3"},
			absent:   []string{"trace 1", "off by default", "dropped"},
		},
		{
			output:   warnings.String(),
			expected: []string{"[WRN] TEST: warn 3"},
			absent:   []string{"debug 2"},
		},
	}
	for i, test := range tests {
		for _, expected := range test.expected {
			if !strings.Contains(test.output, expected) {
				t.Fatalf("%d: Expected %q in output %q", i, expected, test.output)
			}
		}
		for _, absent := range test.absent {
			if strings.Contains(test.output, absent) {
				t.Fatalf("%d: Expected %q to be filtered from output %q", i, absent, test.output)
			}
		}
	}
}

func TestParseAndSetLogLevels(t *testing.T) {
	first := RegisterSubSystem("TST1")
	second := RegisterSubSystem("TST2")
	if RegisterSubSystem("TST1") != first {
		t.Fatalf("Expected RegisterSubSystem to return the existing logger")
	}

	if err := ParseAndSetLogLevels("debug"); err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if first.Level() != LevelDebug || second.Level() != LevelDebug {
		t.Fatalf("Expected both subsystems at debug, instead found %s and %s", first.Level(), second.Level())
	}

	if err := ParseAndSetLogLevels("TST1=trace,TST2=error"); err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if first.Level() != LevelTrace || second.Level() != LevelError {
		t.Fatalf("Expected trace and error, instead found %s and %s", first.Level(), second.Level())
	}

	for _, invalid := range []string{"loud", "TST1=loud", "NOPE=debug", "TST1=debug=info"} {
		if err := ParseAndSetLogLevels(invalid); err == nil {
			t.Fatalf("Expected %q to be rejected", invalid)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input         string
		expected      Level
		expectedValid bool
	}{
		{"trace", LevelTrace, true},
		{"DBG", LevelDebug, true},
		{"Warn", LevelWarn, true},
		{"crt", LevelCritical, true},
		{"off", LevelOff, true},
		{"verbose", LevelInfo, false},
	}
	for i, test := range tests {
		level, ok := LevelFromString(test.input)
		if level != test.expected || ok != test.expectedValid {
			t.Fatalf("%d: Expected (%s, %t), instead found (%s, %t)", i, test.expected, test.expectedValid, level, ok)
		}
	}
	if Level(42).String() != "OFF" {
		t.Fatalf("Expected levels past LevelOff to print as OFF, instead found %s", Level(42))
	}
}
