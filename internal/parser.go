package internal

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Source loads one raw payload. Payloads are JSON in any of the envelope
// shapes Normalize understands.
type Source interface {
	Load(path string) ([]byte, error)
}

// SourceFunc is a function that implements Source
type SourceFunc func(path string) ([]byte, error)

func (f SourceFunc) Load(path string) ([]byte, error) {
	return f(path)
}

// sources is the registry of available payload sources
var sources = map[string]Source{}

// DefaultSource is used when a file argument carries no format prefix.
const DefaultSource = "json"

// RegisterSource registers a source with the given name
func RegisterSource(name string, s Source) {
	sources[name] = s
}

// GetSource returns the source for the given type
func GetSource(name string) (Source, error) {
	s, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %s (available: %v)", name, AvailableSources())
	}
	return s, nil
}

// AvailableSources returns the registered source types, sorted
func AvailableSources() []string {
	var names []string
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnownSource returns true if the name is a registered source
func IsKnownSource(name string) bool {
	_, ok := sources[name]
	return ok
}

// ParseFileArg parses a file argument that may have a format prefix.
// Returns (format, path). If no valid prefix, format is empty.
// Example: "activity-xlsx:export.xlsx" → ("activity-xlsx", "export.xlsx")
// Example: "lines.json" → ("", "lines.json")
// Example: "C:\path\lines.json" → ("", "C:\path\lines.json") // Windows path
func ParseFileArg(arg string) (format, path string) {
	idx := strings.Index(arg, ":")
	if idx == -1 {
		return "", arg
	}
	prefix := arg[:idx]
	if IsKnownSource(prefix) {
		return prefix, arg[idx+1:]
	}
	return "", arg // Not a known source, treat whole thing as path
}

// LoadPayload resolves the source for a file argument and loads it.
// An explicit source name wins over a prefix in the argument.
func LoadPayload(source, arg string) ([]byte, error) {
	format, path := ParseFileArg(arg)
	if source == "" {
		source = format
	}
	if source == "" {
		source = DefaultSource
	}
	s, err := GetSource(source)
	if err != nil {
		return nil, err
	}
	return s.Load(path)
}

func loadJSONFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

func init() {
	RegisterSource(DefaultSource, SourceFunc(loadJSONFile))
	RegisterSource("activity-xlsx", SourceFunc(LoadActivityXLSX))
}
