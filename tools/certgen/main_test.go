package main

import (
	"bytes"
	"crypto/tls"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_CreatesCAAndServerCert(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	var out bytes.Buffer
	if err := run([]string{"-dir", dir, "-hosts", "localhost, 127.0.0.1"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")); err != nil {
		t.Errorf("server pair does not load: %v", err)
	}
	if !strings.Contains(out.String(), "created CA") || !strings.Contains(out.String(), "localhost, 127.0.0.1") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRun_ReusesCA(t *testing.T) {
	dir := t.TempDir()
	if err := run([]string{"-dir", dir}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	ca1, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run([]string{"-dir", dir}, &out); err != nil {
		t.Fatal(err)
	}
	ca2, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ca1, ca2) {
		t.Error("CA was regenerated")
	}
	if strings.Contains(out.String(), "created CA") {
		t.Errorf("second run should not create a CA: %q", out.String())
	}
}

func TestRun_BadFlags(t *testing.T) {
	dir := t.TempDir()
	if err := run([]string{"-dir", dir, "-days", "0"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for zero days")
	}
	if err := run([]string{"-dir", dir, "-hosts", " , "}, &bytes.Buffer{}); err == nil {
		t.Error("expected error without hosts")
	}
	if err := run([]string{"-unknown"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
