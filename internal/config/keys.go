package config

import (
	"os"
)

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "AIz...abc"
}

// CheckAPIKeys returns the status of every credential the commands use.
// The calendar OAuth client is a file, so it is reported by presence.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Gemini API Key", cfg.LLM.GeminiKey, "EQUITYLENS_LLM_GEMINI_KEY", "GEMINI_API_KEY"),
		checkKey("Google Service Account", cfg.Sheets.Credentials, "GOOGLE_CREDENTIALS"),
		checkKey("Sheets Share Email", cfg.Sheets.UserEmail, "USER_EMAIL"),
		checkFile("Calendar OAuth Client", cfg.Calendar.CredentialsFile),
	}
}

// checkKey checks if a key is set and where it came from. The key counts as
// coming from the environment when one of envVars holds the same value.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		status.Source = KeySourceConfig
		for _, env := range envVars {
			if os.Getenv(env) == value {
				status.Source = KeySourceEnv
				break
			}
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

func checkFile(name, path string) KeyStatus {
	status := KeyStatus{Name: name, Source: KeySourceNone}
	if path == "" {
		return status
	}
	if _, err := os.Stat(path); err == nil {
		status.IsSet = true
		status.Source = KeySourceConfig
		status.Masked = path
	}
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
