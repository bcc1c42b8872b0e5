package schema

import (
	"os"
	"path/filepath"
)

// ServiceConfig defines the label space and limits for the core service.
type ServiceConfig struct {
	StateDir     string
	Alphabet     []Label
	TextAlphabet []Label
	// LowWaterMark is the pool size below which frames are asked to
	// re-provision. Zero selects the default; a negative value disables it.
	LowWaterMark int
}

// DefaultLowWaterMark is the default pool size that triggers a provision request.
const DefaultLowWaterMark = 10

// LowWaterMarkDisabled turns low-water provisioning off. Exhaustion still
// requests a provision.
const LowWaterMarkDisabled = -1

// DefaultAlphabet returns a..z followed by aa..zz.
func DefaultAlphabet() []Label {
	letters := "abcdefghijklmnopqrstuvwxyz"
	out := make([]Label, 0, len(letters)+len(letters)*len(letters))
	for _, r := range letters {
		out = append(out, Label(string(r)))
	}
	for _, first := range letters {
		for _, second := range letters {
			out = append(out, Label(string(first)+string(second)))
		}
	}
	return out
}

// DefaultTextAlphabet returns A..Z.
func DefaultTextAlphabet() []Label {
	out := make([]Label, 0, 26)
	for r := 'A'; r <= 'Z'; r++ {
		out = append(out, Label(string(r)))
	}
	return out
}

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".hintx", "state")
	}
	if len(cfg.Alphabet) == 0 {
		cfg.Alphabet = DefaultAlphabet()
	}
	if len(cfg.TextAlphabet) == 0 {
		cfg.TextAlphabet = DefaultTextAlphabet()
	}
	alphabet, err := NormalizeAlphabet(cfg.Alphabet)
	if err != nil {
		return ServiceConfig{}, err
	}
	cfg.Alphabet = alphabet
	text, err := NormalizeAlphabet(cfg.TextAlphabet)
	if err != nil {
		return ServiceConfig{}, err
	}
	cfg.TextAlphabet = text
	cfg.LowWaterMark = clampLowWaterMark(cfg.LowWaterMark, len(cfg.Alphabet))
	return cfg, nil
}

// clampLowWaterMark keeps the mark below the alphabet size so a full pool
// never starts out below it.
func clampLowWaterMark(mark, size int) int {
	switch {
	case mark < 0:
		return LowWaterMarkDisabled
	case mark == 0:
		mark = DefaultLowWaterMark
	}
	return min(mark, size-1)
}
