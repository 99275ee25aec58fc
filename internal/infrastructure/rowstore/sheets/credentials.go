package sheets

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrMissingCredentials = errors.New("missing_google_credentials")
	ErrInvalidCredentials = errors.New("invalid_google_credentials_json")
)

// CredentialSource lists the three ways a service-account key can be supplied.
// The first non-empty source wins: raw JSON, then base64, then a file path.
type CredentialSource struct {
	JSON   string
	Base64 string
	File   string
}

// Empty reports whether no source is configured.
func (c CredentialSource) Empty() bool {
	return c.JSON == "" && c.Base64 == "" && c.File == ""
}

// LoadCredentials resolves the service-account key and repairs a private_key
// whose newlines were escaped when it was stored in an environment variable.
func LoadCredentials(src CredentialSource) ([]byte, error) {
	raw := []byte(src.JSON)
	if len(raw) == 0 && src.Base64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(src.Base64))
		if err != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrInvalidCredentials, err)
		}
		raw = decoded
	}
	if len(raw) == 0 && src.File != "" {
		b, err := os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, ErrMissingCredentials
	}

	var creds map[string]any
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	pk, ok := creds["private_key"].(string)
	if !ok || !strings.Contains(pk, `\n`) {
		return raw, nil
	}
	creds["private_key"] = strings.ReplaceAll(pk, `\n`, "\n")

	fixed, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return fixed, nil
}
