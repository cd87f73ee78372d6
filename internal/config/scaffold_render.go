package config

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"gopkg.in/yaml.v3"
)

// renderScaffoldConfig builds the scaffold YAML via the compiled template.
func renderScaffoldConfig(storiesPath string) (string, error) {
	var builder strings.Builder
	if err := ScaffoldConfig(storiesPath).Render(context.Background(), &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// yamlEntry renders an indented key with a double-quoted string value.
func yamlEntry(key, value string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		scalar, err := yaml.Marshal(&yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Style: yaml.DoubleQuotedStyle,
			Value: value,
		})
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		_, err = io.WriteString(w, "  "+key+": "+string(scalar))
		return err
	})
}
