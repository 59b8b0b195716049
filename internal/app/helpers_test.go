package app

import (
	"os"
	"path/filepath"
)

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
}

func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}
