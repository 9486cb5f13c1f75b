package main

import (
	"testing"

	"github.com/spf13/afero"
)

func TestReadScript(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	script := "# warm up\n60 NONE\n\n120 save 3\n30 load 3\n"
	if err := afero.WriteFile(fs, "/run.script", []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	steps, err := readScript(fs, "/run.script")
	if err != nil {
		t.Fatal(err)
	}
	want := []step{{60, "NONE", 0}, {120, "SAVE", 3}, {30, "LOAD", 3}}
	if len(steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(steps), len(want))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, steps[i], want[i])
		}
	}
}

func TestParseStepErrors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"60",
		"x SAVE 1",
		"60 SAVE",
		"60 LOAD one",
		"60 JUMP 1",
	} {
		if _, err := parseStep(line); err == nil {
			t.Errorf("parseStep(%q) succeeded", line)
		}
	}
}
