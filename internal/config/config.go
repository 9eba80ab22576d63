package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

type Config struct {
	OIDC      OIDCConfig
	Directory DirectoryConfig
	Face      FaceConfig
	Blob      BlobConfig
	Redis     RedisConfig
	Countries []Country
}

// OIDCConfig configures the external identity provider (authorization code
// flow with OIDC discovery).
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. https://app.example.com/api/v1/auth/callback
}

// DirectoryConfig configures the directory service that owns user records.
type DirectoryConfig struct {
	URL      string
	APIToken string
}

// FaceConfig configures the face recognition service.
type FaceConfig struct {
	Endpoint        string
	SubscriptionKey string
}

// BlobConfig configures the Azure storage account holding profile pictures.
type BlobConfig struct {
	AccountName string
	AccountKey  string
	Container   string // defaults to profile-pictures
}

// RedisConfig configures optional session persistence. Sessions are kept
// in memory when URL is empty.
type RedisConfig struct {
	URL string
}

// Country is one entry of the embedded ISO 3166-1 list served to the edit
// form's country dropdown.
type Country struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// envDefault reads an environment variable with a fallback.
func envDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var countries struct {
		Countries []Country `yaml:"countries"`
	}
	if err := yaml.Unmarshal(countriesYAML, &countries); err != nil {
		// Embedded file, cannot fail outside a broken build.
		panic("failed to unmarshal embedded countries.yaml: " + err.Error())
	}

	return &Config{
		OIDC: OIDCConfig{
			IssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
		Directory: DirectoryConfig{
			URL:      os.Getenv("DIRECTORY_URL"),
			APIToken: os.Getenv("DIRECTORY_API_TOKEN"),
		},
		Face: FaceConfig{
			Endpoint:        os.Getenv("FACE_ENDPOINT"),
			SubscriptionKey: os.Getenv("FACE_SUBSCRIPTION_KEY"),
		},
		Blob: BlobConfig{
			AccountName: os.Getenv("BLOB_ACCOUNT_NAME"),
			AccountKey:  os.Getenv("BLOB_ACCOUNT_KEY"),
			Container:   envDefault("BLOB_CONTAINER", "profile-pictures"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Countries: countries.Countries,
	}
}

// Validate reports every required setting the serve command is missing.
func (c *Config) Validate() error {
	required := map[string]string{
		"OIDC_ISSUER_URL":       c.OIDC.IssuerURL,
		"OIDC_CLIENT_ID":        c.OIDC.ClientID,
		"OIDC_CLIENT_SECRET":    c.OIDC.ClientSecret,
		"OIDC_REDIRECT_URL":     c.OIDC.RedirectURL,
		"DIRECTORY_URL":         c.Directory.URL,
		"DIRECTORY_API_TOKEN":   c.Directory.APIToken,
		"FACE_ENDPOINT":         c.Face.Endpoint,
		"FACE_SUBSCRIPTION_KEY": c.Face.SubscriptionKey,
		"BLOB_ACCOUNT_NAME":     c.Blob.AccountName,
		"BLOB_ACCOUNT_KEY":      c.Blob.AccountKey,
	}

	var missing []string
	for key, value := range required {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
