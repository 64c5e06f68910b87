package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretString_StringIsRedacted(t *testing.T) {
	s := SecretString("sk_live_supersecret")

	if s.String() != "***REDACTED***" {
		t.Errorf("String() = %q, want redacted placeholder", s.String())
	}

	formatted := fmt.Sprintf("key is %s", s)
	if strings.Contains(formatted, "supersecret") {
		t.Errorf("fmt output leaked the secret: %q", formatted)
	}
}

func TestSecretString_MarshalJSONIsRedacted(t *testing.T) {
	payload := struct {
		Key SecretString `json:"key"`
	}{Key: "sk_live_supersecret"}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if strings.Contains(string(out), "supersecret") {
		t.Errorf("JSON output leaked the secret: %s", out)
	}
	if string(out) != `{"key":"***REDACTED***"}` {
		t.Errorf("unexpected JSON: %s", out)
	}
}

func TestSecretString_Unmask(t *testing.T) {
	s := SecretString("sk_live_supersecret")
	if s.Unmask() != "sk_live_supersecret" {
		t.Errorf("Unmask() = %q, want raw value", s.Unmask())
	}
}
