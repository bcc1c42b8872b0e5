package appconfig

import (
	"testing"

	"pkt.systems/hintx/schema"
)

func TestDefaultServiceConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	svc, err := cfg.ServiceConfig()
	if err != nil {
		t.Fatalf("service config: %v", err)
	}
	if len(svc.Alphabet) != len(schema.DefaultAlphabet()) {
		t.Fatalf("expected default alphabet, got %d labels", len(svc.Alphabet))
	}
	if len(svc.TextAlphabet) != 26 || svc.TextAlphabet[0] != "A" {
		t.Fatalf("unexpected text alphabet %v", svc.TextAlphabet)
	}
	if svc.LowWaterMark != schema.DefaultLowWaterMark {
		t.Fatalf("expected low water mark %d, got %d", schema.DefaultLowWaterMark, svc.LowWaterMark)
	}
}

func TestServiceConfigParsesAlphabet(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Hints.Alphabet = "asdfjkl"
	cfg.Hints.LowWaterMark = 2
	svc, err := cfg.ServiceConfig()
	if err != nil {
		t.Fatalf("service config: %v", err)
	}
	if len(svc.Alphabet) != 7 || svc.Alphabet[1] != "s" {
		t.Fatalf("unexpected alphabet %v", svc.Alphabet)
	}
	cfg.Hints.Alphabet = "a a"
	if _, err := cfg.ServiceConfig(); err == nil {
		t.Fatalf("expected duplicate labels to be rejected")
	}
}

func TestServiceConfigShortAlphabetWithDefaultMark(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Hints.Alphabet = "abc"
	svc, err := cfg.ServiceConfig()
	if err != nil {
		t.Fatalf("service config: %v", err)
	}
	if svc.LowWaterMark != 2 {
		t.Fatalf("expected mark capped at 2, got %d", svc.LowWaterMark)
	}
	cfg.Hints.LowWaterMark = -1
	svc, err = cfg.ServiceConfig()
	if err != nil {
		t.Fatalf("service config: %v", err)
	}
	if svc.LowWaterMark != schema.LowWaterMarkDisabled {
		t.Fatalf("expected disabled mark, got %d", svc.LowWaterMark)
	}
}
