package notifiers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "notifiers.yaml", `
notifiers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: queue
    type: SQS
    sqs:
      uri: " https://sqs.us-east-1.amazonaws.com/1/reports "
      region: us-east-1
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "queue" {
		t.Fatalf("expected only queue enabled, got %#v", enabled)
	}
	if enabled[0].Type != TypeSQS || enabled[0].SQS.QueueURL != "https://sqs.us-east-1.amazonaws.com/1/reports" {
		t.Fatalf("config not sanitized: %#v", enabled[0])
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 notifiers, got %d", len(reg.All()))
	}
}

func TestLoadRegistryJSONDefaults(t *testing.T) {
	path := writeFile(t, "notifiers.json", `{"notifiers":[
		{"id":"hook","type":"http","http":{"url":"https://example.com/hook","headers":{" X-Key ":" v ","empty":""}}},
		{"id":"ps","type":"gcp_pubsub","gcp_pubsub":{"project_id":"p","topic":"t"}}
	]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	hook, ok := reg.ByID("hook")
	if !ok {
		t.Fatalf("hook not found")
	}
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", hook.HTTP)
	}
	if len(hook.HTTP.Headers) != 1 || hook.HTTP.Headers["X-Key"] != "v" {
		t.Fatalf("headers not sanitized: %#v", hook.HTTP.Headers)
	}
	if _, ok := reg.ByID("ps"); !ok {
		t.Fatalf("pubsub notifier not found")
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeFile(t, "notifiers.yaml", `
notifiers:
  - id: a
    type: http
    http: {url: https://example.com}
  - id: a
    type: http
    http: {url: https://example.com/2}
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryRejectsEmpty(t *testing.T) {
	if _, err := LoadRegistry(writeFile(t, "n.yaml", "notifiers: []\n")); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := LoadRegistry("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestValidateNotifierConfig(t *testing.T) {
	cases := []NotifierConfig{
		{Type: TypeHTTP},
		{ID: "x"},
		{ID: "h1", Type: TypeHTTP},
		{ID: "q", Type: TypeSQS, SQS: &SQSNotifierConfig{QueueURL: "u"}},
		{ID: "s", Type: TypeSNS, SNS: &SNSNotifierConfig{Region: "us-east-1"}},
		{ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubNotifierConfig{ProjectID: "p"}},
	}
	for _, c := range cases {
		if err := validateNotifierConfig(c); err == nil {
			t.Fatalf("expected validation error for %#v", c)
		}
	}
}
