package userstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_SeedsDemoUsers(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.AuthenticateByPassword("kingpin"); !ok {
		t.Fatalf("expected demo user kingpin to authenticate")
	}
	if _, ok := s.AuthenticateByPassword("tez"); !ok {
		t.Fatalf("expected demo user tez to authenticate")
	}
	if _, ok := s.AuthenticateByPassword("nope"); ok {
		t.Fatalf("expected unknown password to fail")
	}
}

func TestAddMachine_GeneratesUniqueAgentKey(t *testing.T) {
	s, _ := New("")
	m1, err := s.AddMachine("kingpin", "Laptop")
	if err != nil {
		t.Fatalf("AddMachine: %v", err)
	}
	m2, err := s.AddMachine("kingpin", "Desktop")
	if err != nil {
		t.Fatalf("AddMachine: %v", err)
	}
	if m1.AgentKey == "" || m2.AgentKey == "" || m1.AgentKey == m2.AgentKey {
		t.Fatalf("expected distinct non-empty agent keys, got %q and %q", m1.AgentKey, m2.AgentKey)
	}
}

func TestAddMachine_UnknownUser(t *testing.T) {
	s, _ := New("")
	if _, err := s.AddMachine("ghost", "X"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByAgentKey(t *testing.T) {
	s, _ := New("")
	m, err := s.AddMachine("kingpin", "Laptop")
	if err != nil {
		t.Fatalf("AddMachine: %v", err)
	}
	user, machine, ok := s.GetByAgentKey(m.AgentKey)
	if !ok || user.ID != "kingpin" || machine.ID != m.ID {
		t.Fatalf("GetByAgentKey returned unexpected result: %v %v %v", user, machine, ok)
	}
	if _, _, ok := s.GetByAgentKey("not-a-real-key"); ok {
		t.Fatalf("expected lookup of unknown key to fail")
	}
}

func TestSetMacAddress_ClearsOnEmptyString(t *testing.T) {
	s, _ := New("")
	m, _ := s.AddMachine("kingpin", "Laptop")

	m, err := s.SetMacAddress("kingpin", m.ID, "AA:BB:CC:DD:EE:FF", "192.168.1.255")
	if err != nil {
		t.Fatalf("SetMacAddress: %v", err)
	}
	if m.MacAddress == nil || *m.MacAddress != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("expected MAC to be set, got %v", m.MacAddress)
	}

	m, err = s.SetMacAddress("kingpin", m.ID, "", "")
	if err != nil {
		t.Fatalf("SetMacAddress: %v", err)
	}
	if m.MacAddress != nil || m.BroadcastAddress != nil {
		t.Fatalf("expected MAC and broadcast to be cleared, got %v %v", m.MacAddress, m.BroadcastAddress)
	}
}

func TestRemoveMachine(t *testing.T) {
	s, _ := New("")
	m, _ := s.AddMachine("kingpin", "Laptop")
	if err := s.RemoveMachine("kingpin", m.ID); err != nil {
		t.Fatalf("RemoveMachine: %v", err)
	}
	if _, ok := s.GetMachine("kingpin", m.ID); ok {
		t.Fatalf("expected machine to be gone")
	}
	if err := s.RemoveMachine("kingpin", m.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second removal, got %v", err)
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")

	s1, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, err := s1.AddMachine("kingpin", "Laptop")
	if err != nil {
		t.Fatalf("AddMachine: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reload New: %v", err)
	}
	reloaded, ok := s2.GetMachine("kingpin", m.ID)
	if !ok || reloaded.AgentKey != m.AgentKey {
		t.Fatalf("expected machine to survive reload, got %v %v", reloaded, ok)
	}
}

func TestNew_MissingFileSeedsAndWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")

	if _, err := New(path); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected seed file to be written: %v", err)
	}
}
