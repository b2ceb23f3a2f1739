// Package config holds process-wide toggles and project-level settings.
//
// It mirrors the teacher's split: a handful of package vars flipped once
// at startup (constants.go), plus a YAML project file parsed on demand
// (project.go).
package config

const SourceFileExt = ".php"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".php", ".php5", ".phtml"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode is a process-wide toggle for test runs. No command sets it
// and no code in this module reads it.
var IsTestMode = false

// IsLSPMode is a process-wide toggle for transport-serving runs. The serve
// command does not set it and no code in this module reads it; the rich
// formatter's color detection does not consult it.
var IsLSPMode = false

// DefaultConfigFile is the project config filename FindConfig searches for.
const DefaultConfigFile = ".sentra.yml"
