// Package role loads the markdown-with-frontmatter role files that supply
// the system-prompt body and optional model/temperature overrides.
package role

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samsaffron/whai/internal/config"
	"gopkg.in/yaml.v3"
)

// NameRe is the allowed shape for a role name.
var NameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Role is a loaded role file.
type Role struct {
	Name        string
	Body        string
	Model       string
	Temperature *float32
}

type frontmatter struct {
	Model       string   `yaml:"model,omitempty"`
	Temperature *float32 `yaml:"temperature,omitempty"`
}

// Dir returns <config_dir>/roles.
func Dir() (string, error) {
	cfgDir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "roles"), nil
}

// Path returns the path to a named role file.
func Path(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".md"), nil
}

// Load reads and parses a role file, validating the name shape and any
// frontmatter fields present.
func Load(name string) (*Role, error) {
	if !NameRe.MatchString(name) {
		return nil, fmt.Errorf("role name %q must match %s", name, NameRe.String())
	}

	path, err := Path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("role %q not found at %s", name, path)
		}
		return nil, err
	}

	r, err := Parse(name, string(data))
	if err != nil {
		return nil, fmt.Errorf("role %q invalid (%s): %w", name, path, err)
	}
	return r, nil
}

// Parse splits optional YAML frontmatter (between leading `---` markers) from
// the role body and validates it.
func Parse(name, content string) (*Role, error) {
	r := &Role{Name: name}

	body := content
	if fm, rest, ok := splitFrontmatter(content); ok {
		var parsed frontmatter
		if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
		r.Model = parsed.Model
		r.Temperature = parsed.Temperature
		body = rest
	}

	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return nil, fmt.Errorf("temperature %.2f out of range [0,2]", *r.Temperature)
	}

	r.Body = strings.TrimSpace(body)
	return r, nil
}

// Serialize renders a role back to markdown-with-frontmatter form, the
// inverse of Parse.
func Serialize(r *Role) (string, error) {
	if r.Model == "" && r.Temperature == nil {
		return r.Body + "\n", nil
	}

	fm := frontmatter{Model: r.Model, Temperature: r.Temperature}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}
	return "---\n" + string(data) + "---\n" + r.Body + "\n", nil
}

func splitFrontmatter(content string) (fm, rest string, ok bool) {
	const marker = "---"
	if !strings.HasPrefix(content, marker) {
		return "", content, false
	}
	after := content[len(marker):]
	// Require the marker to be on its own line.
	if !strings.HasPrefix(after, "\n") && after != "" {
		return "", content, false
	}
	after = strings.TrimPrefix(after, "\n")

	end := strings.Index(after, "\n"+marker)
	if end < 0 {
		return "", content, false
	}
	fm = after[:end]
	rest = after[end+len("\n"+marker):]
	rest = strings.TrimPrefix(rest, "\n")
	return fm, rest, true
}

// List returns the role names available in the roles directory (file names
// without the .md extension), sorted by the filesystem glob order.
func List() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, strings.TrimSuffix(base, ".md"))
	}
	return names, nil
}

// Resolve implements the role-precedence rule: explicit flag > WHAI_ROLE env
// (non-empty) > config default_role > literal "default".
func Resolve(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if env := config.RoleFromEnv(); env != "" {
		return env
	}
	if cfg != nil && cfg.DefaultRole != "" {
		return cfg.DefaultRole
	}
	return "default"
}
