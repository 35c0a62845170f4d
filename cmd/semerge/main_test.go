package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}
	if rootCmd.Use != "semerge" {
		t.Errorf("expected Use %q, got %q", "semerge", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Short description should not be empty")
	}
}

func TestMergeCommandConfiguration(t *testing.T) {
	if mergeCmd == nil {
		t.Fatal("mergeCmd should not be nil")
	}
	if mergeCmd.RunE == nil {
		t.Error("RunE should not be nil")
	}
}

func TestMergeDirAndRevisionsCommandsRegistered(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"merge", "merge-dir", "merge-revisions"} {
		if !found[name] {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestRunMergeCleanExitsWithoutCallingExitProcess(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.js")
	base := filepath.Join(dir, "base.js")
	right := filepath.Join(dir, "right.js")
	for _, p := range []string{left, base, right} {
		if err := os.WriteFile(p, []byte("class C {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	called := false
	old := exitProcess
	exitProcess = func(code int) { called = true }
	defer func() { exitProcess = old }()

	outputPath = ""
	if err := runMerge(mergeCmd, []string{left, base, right}); err != nil {
		t.Fatalf("runMerge: %v", err)
	}
	if called {
		t.Error("exitProcess should not be called on a clean merge")
	}
}

func TestRunMergeConflictCallsExitProcessWithConflictCode(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.js")
	base := filepath.Join(dir, "base.js")
	right := filepath.Join(dir, "right.js")
	os.WriteFile(left, []byte("class C { m(){ x=1; } }\n"), 0o644)
	os.WriteFile(base, []byte("class C { m(){ x=0; } }\n"), 0o644)
	os.WriteFile(right, []byte("class C { m(){ x=2; } }\n"), 0o644)

	var gotCode int
	called := false
	old := exitProcess
	exitProcess = func(code int) { called = true; gotCode = code }
	defer func() { exitProcess = old }()

	outputPath = ""
	if err := runMerge(mergeCmd, []string{left, base, right}); err != nil {
		t.Fatalf("runMerge: %v", err)
	}
	if !called {
		t.Fatal("exitProcess should be called when the merge has conflicts")
	}
	if gotCode != exitConflicts {
		t.Errorf("expected exit code %d, got %d", exitConflicts, gotCode)
	}
}

func TestFailUsesPosixExitCode(t *testing.T) {
	var gotCode int
	old := exitProcess
	exitProcess = func(code int) { gotCode = code }
	defer func() { exitProcess = old }()

	posixExit = true
	defer func() { posixExit = false }()

	_ = fail(os.ErrNotExist)
	if gotCode != 255 {
		t.Errorf("expected posix exit code 255, got %d", gotCode)
	}
}
