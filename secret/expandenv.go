package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnvStrict replaces $VAR and ${VAR} with environment values. A
// braced variable that is not set is an error; a bare $VAR that is not set
// expands to "". "$$" produces a literal "$".
func ExpandEnvStrict(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	const escaped = "\x00dollar\x00"
	s = strings.ReplaceAll(s, "$$", escaped)

	out := os.Expand(s, func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok && strings.Contains(s, "${"+key+"}") && !slices.Contains(missing, key) {
			missing = append(missing, key)
		}
		return v
	})
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return strings.ReplaceAll(out, escaped, "$"), nil
}
