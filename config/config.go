// Package config provides the merge pipeline's immutable Configuration
// value: CLI flags layered over an optional YAML file, loaded once per
// process invocation and threaded read-only from there on. There is no
// package-level mutable state here, unlike the process-wide mutable
// configuration this was grown away from.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alicezbo/jFSTMerge/similarity"
)

// RenamingStrategy selects the policy the renaming/deletion handler applies
// to a scenario tuple (see handlers/renaming).
type RenamingStrategy string

const (
	SafeStrategy              RenamingStrategy = "SAFE"
	KeepBothStrategy          RenamingStrategy = "KEEP_BOTH"
	MergeStrategy             RenamingStrategy = "MERGE"
	UnstructuredMergeStrategy RenamingStrategy = "UNSTRUCTURED_MERGE"
)

// Configuration is the immutable set of knobs threaded through a merge
// pipeline run. Construct it with Load or Default; its fields are plain and
// exported but callers should treat a Configuration value as read-only once
// built.
type Configuration struct {
	RenamingStrategy                           RenamingStrategy `yaml:"renamingStrategy"`
	HandleDuplicateDeclarations                bool             `yaml:"handleDuplicateDeclarations"`
	HandleInitializationBlocks                 bool             `yaml:"handleInitializationBlocks"`
	HandleNewElementReferencingEditedOne       bool             `yaml:"handleNewElementReferencingEditedOne"`
	HandleMethodAndConstructorRenamingDeletion bool             `yaml:"handleMethodAndConstructorRenamingDeletion"`
	HandleTypeAmbiguityError                   bool             `yaml:"handleTypeAmbiguityError"`
	IgnoreWhitespaceChange                     bool             `yaml:"ignoreWhitespaceChange"`
	Tau                                        float64          `yaml:"tau"`
	StrictestMatch                             bool             `yaml:"strictestMatch"`
	ExcludeGlobs                               []string         `yaml:"excludeGlobs"`
	PosixExitCodes                             bool             `yaml:"posixExitCodes"`
}

// Default returns the Configuration used when no flags or file override it:
// every handler enabled, SAFE renaming strategy, the fixed similarity
// threshold, and no excluded paths.
func Default() Configuration {
	return Configuration{
		RenamingStrategy:                           SafeStrategy,
		HandleDuplicateDeclarations:                true,
		HandleInitializationBlocks:                 true,
		HandleNewElementReferencingEditedOne:       true,
		HandleMethodAndConstructorRenamingDeletion: true,
		HandleTypeAmbiguityError:                   true,
		IgnoreWhitespaceChange:                      false,
		Tau:                                         similarity.Tau,
		StrictestMatch:                              false,
	}
}

// Load builds a Configuration starting from Default, overlaying an optional
// YAML file (path may be empty, meaning no file), and returns it. Any field
// the file doesn't set keeps its Default value since Unmarshal is applied
// on top of an already-populated struct.
func Load(path string) (Configuration, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("reading configuration file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("parsing configuration file: %w", err)
	}
	return cfg, nil
}
