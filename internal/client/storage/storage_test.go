package storage

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FileNotExist(t *testing.T) {
	s := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	cookies, err := s.Load("http://api")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cookies) != 0 {
		t.Errorf("expected no cookies, got %d", len(cookies))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewSessionStore(path)

	err := s.Save("http://api", []*http.Cookie{
		{Name: "sessionid", Value: "abc"},
		{Name: "csrftoken", Value: "tok"},
		{Name: "cleared", Value: ""},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %v; want 0600", perm)
	}

	cookies, err := s.Load("http://api")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != "sessionid" || cookies[0].Value != "abc" {
		t.Errorf("unexpected first cookie %+v", cookies[0])
	}
	if cookies[1].Name != "csrftoken" || cookies[1].Value != "tok" {
		t.Errorf("unexpected second cookie %+v", cookies[1])
	}
}

func TestLoad_OtherBackend(t *testing.T) {
	s := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	if err := s.Save("http://one", []*http.Cookie{{Name: "sessionid", Value: "abc"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cookies, err := s.Load("http://two")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cookies != nil {
		t.Errorf("expected no cookies for another backend, got %v", cookies)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not-json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSessionStore(path).Load("http://api"); err == nil {
		t.Error("expected decode error")
	}
}

func TestSave_FileContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewSessionStore(path)
	if err := s.Save("http://api", []*http.Cookie{{Name: "sessionid", Value: "abc"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f SessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if f.Backend != "http://api" || f.SavedAt.IsZero() {
		t.Errorf("unexpected file %+v", f)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewSessionStore(path)
	if err := s.Clear(); err != nil {
		t.Errorf("Clear on missing file: %v", err)
	}
	if err := s.Save("http://api", []*http.Cookie{{Name: "sessionid", Value: "abc"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
}
