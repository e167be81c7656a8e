package main

import (
	"strings"
	"testing"
)

func TestRestoreCmd(t *testing.T) {
	fake, svc := setupCmdTest(t, 7, "first", "second")

	out, err := runCmd(t, svc, "restore", "1", "1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "Restored memory/1 version 1 as version 3\n" {
		t.Errorf("output = %q", out)
	}

	puts := fake.putBodies()
	if len(puts) != 1 || puts[0] != `{"title":"Draft 1","content":"first"}` {
		t.Errorf("payloads = %v", puts)
	}
}

func TestRestoreCmdBlankVersion(t *testing.T) {
	fake, svc := setupCmdTest(t, 7, "  ", "second")

	_, err := runCmd(t, svc, "restore", "1", "1")
	if err == nil || !strings.Contains(err.Error(), "no content to restore") {
		t.Fatalf("err = %v, want invalid restore target", err)
	}
	if len(fake.putBodies()) != 0 {
		t.Error("expected no save")
	}
}

func TestRestoreCmdUnknownVersion(t *testing.T) {
	_, svc := setupCmdTest(t, 7, "first")

	_, err := runCmd(t, svc, "restore", "1", "9")
	if err == nil || !strings.Contains(err.Error(), "version not found") {
		t.Fatalf("err = %v, want version not found", err)
	}
}

func TestRestoreCmdNotOwner(t *testing.T) {
	fake, svc := setupCmdTest(t, 8, "first", "second")

	if _, err := runCmd(t, svc, "restore", "1", "1"); err == nil {
		t.Fatal("expected permission error")
	}
	if len(fake.putBodies()) != 0 {
		t.Error("expected no save")
	}
}
