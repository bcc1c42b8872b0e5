package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateLabel ensures a label is a non-empty run of letters or digits.
func ValidateLabel(label Label) error {
	raw := string(label)
	if raw == "" {
		return ErrInvalidLabel
	}
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return ErrInvalidLabel
	}
	return nil
}

// NormalizeAlphabet trims and validates an alphabet, rejecting duplicates.
// Order is preserved: it defines the order labels are handed out in.
func NormalizeAlphabet(labels []Label) ([]Label, error) {
	if len(labels) == 0 {
		return nil, ErrInvalidAlphabet
	}
	seen := make(map[Label]struct{}, len(labels))
	out := make([]Label, 0, len(labels))
	for _, label := range labels {
		label = Label(strings.TrimSpace(string(label)))
		if err := ValidateLabel(label); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAlphabet, label)
		}
		if _, ok := seen[label]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidAlphabet, label)
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out, nil
}

// ParseAlphabet splits a comma or whitespace separated list into labels.
// A single word without separators is split into its characters.
func ParseAlphabet(value string) ([]Label, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrInvalidAlphabet
	}
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 1 {
		fields = fields[:0]
		for _, r := range value {
			fields = append(fields, string(r))
		}
	}
	labels := make([]Label, 0, len(fields))
	for _, field := range fields {
		labels = append(labels, Label(field))
	}
	return NormalizeAlphabet(labels)
}

// UniqueLabels drops duplicates while keeping the first occurrence order.
func UniqueLabels(labels []Label) []Label {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[Label]struct{}, len(labels))
	out := make([]Label, 0, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
