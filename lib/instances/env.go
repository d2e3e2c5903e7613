package instances

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// readEnv reads the workspace .env file and returns the NYUN_-prefixed keys
// with the prefix stripped, as sorted KEY=value pairs. A missing file yields
// no variables.
func readEnv(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}

	forwarded := lo.PickBy(vars, func(key, _ string) bool {
		return strings.HasPrefix(key, EnvPrefix) && len(key) > len(EnvPrefix)
	})

	env := make([]string, 0, len(forwarded))
	for key, value := range forwarded {
		env = append(env, strings.TrimPrefix(key, EnvPrefix)+"="+value)
	}
	sort.Strings(env)
	return env, nil
}
