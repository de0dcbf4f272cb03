package binding

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddRuleDeduplicates(t *testing.T) {
	bs := New("1")
	rule := BindingRule{Name: "a", From: "127.0.0.1:1", To: "127.0.0.1:2"}

	if !bs.AddRule(rule) {
		t.Fatal("expected first insert to succeed")
	}
	if bs.AddRule(rule) {
		t.Fatal("expected duplicate insert to be dropped")
	}
	if len(bs.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(bs.Bindings))
	}
}

func TestAddRuleDefaultsName(t *testing.T) {
	bs := New("1")
	bs.AddRule(BindingRule{From: "127.0.0.1:1", To: "127.0.0.1:2"})

	if bs.Bindings[0].Name == "" {
		t.Error("expected a generated name for an unnamed binding")
	}
}

func TestLoadFromFileDeduplicatesDuplicateEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traffic.json")
	doc := `{
		"bindings": [
			{"name": "a", "from": "127.0.0.1:19010", "to": "127.0.0.1:19011"},
			{"name": "a", "from": "127.0.0.1:19010", "to": "127.0.0.1:19011"}
		]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	bs, err := LoadFromFile("1", path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if len(bs.Bindings) != 1 {
		t.Fatalf("expected 1 binding after dedup, got %d", len(bs.Bindings))
	}
	if bs.Applied {
		t.Error("Applied should default to false")
	}
}

func TestLoadFromFileParsesRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traffic.json")
	doc := `{
		"bindings": [
			{
				"name": "b",
				"from": "127.0.0.1:19020",
				"to": "127.0.0.1:19021",
				"rules": {
					"egress": [{"kind": "METHOD", "method_enum": "POST"}],
					"ingress": [{"kind": "BOGUS", "url_wildcard": ".*"}]
				}
			}
		]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	bs, err := LoadFromFile("1", path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if len(bs.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(bs.Bindings))
	}
	rules := bs.Bindings[0].Rules
	if len(rules.Egress) != 1 || rules.Egress[0].Method != MethodPOST {
		t.Errorf("expected egress METHOD POST, got %+v", rules.Egress)
	}
	if len(rules.Ingress) != 1 || rules.Ingress[0].Kind != RuleKindURL {
		t.Errorf("expected unknown kind to fall back to URL, got %+v", rules.Ingress)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("1", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
