package gotdoa

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	Logf("step %d", 1)
	if len(lines) != 1 || lines[0] != "step %d" {
		t.Fatalf("custom logger not called: %v", lines)
	}

	SetLogger(nil)
	Logf("muted")
	if len(lines) != 1 {
		t.Fatal("muted logger forwarded a message")
	}
}

// muteLogs silences the package logger for the duration of a test.
func muteLogs(t *testing.T) {
	original := Logf
	SetLogger(nil)
	t.Cleanup(func() { Logf = original })
}
