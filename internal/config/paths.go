package config

import (
	"os"
	"path/filepath"
)

const appDirName = "esterm"

// Dir returns the config directory. ESTERM_CONFIG_DIR overrides the
// platform default, which tests and portable installs rely on.
func Dir() string {
	if dir := os.Getenv("ESTERM_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return appDirName
		}
		return filepath.Join(home, "."+appDirName)
	}
	return filepath.Join(base, appDirName)
}

func ThemeDir() string {
	return filepath.Join(Dir(), "themes")
}

func ProfilesPath() string {
	return filepath.Join(Dir(), "profiles.json")
}

func SecretsDir() string {
	return filepath.Join(Dir(), "secrets")
}

func HistoryPath() string {
	return filepath.Join(Dir(), "history.db")
}
