package baseline

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type header struct {
	Variant Variant `toml:"variant"`
}

// Load reads and parses a baseline TOML file. The second return value
// reports whether the file lacked a variant header and was therefore read
// as strict for backward compatibility — callers surface this as a
// warning, not an error.
func Load(path string) (*Baseline, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading baseline %s: %w", path, err)
	}

	var h header
	if err := toml.Unmarshal(data, &h); err != nil {
		return nil, false, fmt.Errorf("parsing baseline %s: %w", path, err)
	}

	switch h.Variant {
	case VariantLoose:
		var loose LooseBaseline
		if err := toml.Unmarshal(data, &loose); err != nil {
			return nil, false, fmt.Errorf("parsing loose baseline %s: %w", path, err)
		}
		return &Baseline{Variant: VariantLoose, Loose: &loose}, false, nil
	case VariantStrict:
		var strict StrictBaseline
		if err := toml.Unmarshal(data, &strict); err != nil {
			return nil, false, fmt.Errorf("parsing strict baseline %s: %w", path, err)
		}
		return &Baseline{Variant: VariantStrict, Strict: &strict}, false, nil
	default:
		var strict StrictBaseline
		if err := toml.Unmarshal(data, &strict); err != nil {
			return nil, false, fmt.Errorf("parsing baseline %s: %w", path, err)
		}
		return &Baseline{Variant: VariantStrict, Strict: &strict}, true, nil
	}
}

// Save serializes a Baseline to path. If a file already exists there and
// backup is true, it is renamed to path+".bkp" first; otherwise it is
// overwritten.
func Save(path string, b *Baseline, backup bool) error {
	if _, err := os.Stat(path); err == nil {
		if backup {
			if err := os.Rename(path, path+".bkp"); err != nil {
				return fmt.Errorf("backing up baseline %s: %w", path, err)
			}
		} else if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing baseline %s: %w", path, err)
		}
	}

	var data []byte
	var err error
	switch b.Variant {
	case VariantLoose:
		data, err = toml.Marshal(b.Loose)
	default:
		data, err = toml.Marshal(b.Strict)
	}
	if err != nil {
		return fmt.Errorf("serializing baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing baseline %s: %w", path, err)
	}
	return nil
}
