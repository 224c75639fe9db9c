package config

import (
	"os"
	"strings"
	"time"

	"mail-unsubscriber/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultIMAPServer          = "imap.gmail.com:993"
	DefaultMailbox             = "INBOX"
	DefaultIMAPTimeout         = 30 * time.Second
	DefaultDispatchTimeout     = 10 * time.Second
	DefaultDispatchConcurrency = 8
	DefaultScanWorkers         = 4
	DefaultOutputPath          = "links.txt"
	DefaultUserAgent           = "Mozilla/5.0 (compatible; mail-unsubscriber/1.0)"

	// MaxDispatchConcurrency bounds in-flight requests against remote endpoints
	MaxDispatchConcurrency = 8
)

const (
	envLogin    = "EMAIL"
	envPassword = "PASSWORD"
	envServer   = "IMAP_SERVER"
	envMailbox  = "IMAP_MAILBOX"
)

// Load reads the configuration from the specified YAML file and returns a Config struct.
// A missing file is not an error: defaults and environment variables are used instead.
func Load(filepath string) (*models.Config, error) {
	var config models.Config

	if filepath != "" {
		configFile, err := os.ReadFile(filepath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(configFile, &config); err != nil {
				return nil, &Error{Err: err}
			}
		case os.IsNotExist(err):
		default:
			return nil, &Error{Err: err}
		}
	}

	ApplyEnv(&config)
	ApplyDefaults(&config)

	return &config, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process environment.
// Variables already set in the environment win. A missing file is ignored.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides file values with the environment
func ApplyEnv(config *models.Config) {
	if v := strings.TrimSpace(os.Getenv(envLogin)); v != "" {
		config.Email.Login = v
	}
	if v := os.Getenv(envPassword); v != "" {
		config.Email.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(envServer)); v != "" {
		config.Email.Imap = v
	}
	if v := strings.TrimSpace(os.Getenv(envMailbox)); v != "" {
		config.Email.MailBox = v
	}
}

// ApplyDefaults fills every unset field
func ApplyDefaults(config *models.Config) {
	if strings.TrimSpace(config.Email.Imap) == "" {
		config.Email.Imap = DefaultIMAPServer
	}
	if !strings.Contains(config.Email.Imap, ":") {
		config.Email.Imap += ":993"
	}
	if strings.TrimSpace(config.Email.MailBox) == "" {
		config.Email.MailBox = DefaultMailbox
	}
	if config.Email.Timeout <= 0 {
		config.Email.Timeout = DefaultIMAPTimeout
	}
	if config.Scan.Workers <= 0 {
		config.Scan.Workers = DefaultScanWorkers
	}
	if config.Dispatch.Timeout <= 0 {
		config.Dispatch.Timeout = DefaultDispatchTimeout
	}
	if config.Dispatch.Concurrency <= 0 {
		config.Dispatch.Concurrency = DefaultDispatchConcurrency
	}
	if config.Dispatch.Concurrency > MaxDispatchConcurrency {
		config.Dispatch.Concurrency = MaxDispatchConcurrency
	}
	if strings.TrimSpace(config.Dispatch.UserAgent) == "" {
		config.Dispatch.UserAgent = DefaultUserAgent
	}
	if strings.TrimSpace(config.Output.Path) == "" {
		config.Output.Path = DefaultOutputPath
	}
	if config.Output.S3 != nil && strings.TrimSpace(config.Output.S3.Key) == "" {
		config.Output.S3.Key = config.Output.Path
	}
	if strings.TrimSpace(config.Logging.Dir) == "" {
		config.Logging.Dir = "."
	}
}

// Validate ensures the configuration can be used to open a mailbox session.
// It reports every missing field at once.
func Validate(config *models.Config) error {
	missing := []string{}

	if strings.TrimSpace(config.Email.Login) == "" {
		missing = append(missing, "email.login ("+envLogin+")")
	}
	if config.Email.Password == "" {
		missing = append(missing, "email.password ("+envPassword+")")
	}
	if strings.TrimSpace(config.Email.Imap) == "" {
		missing = append(missing, "email.imap ("+envServer+")")
	}
	if config.Output.S3 != nil && strings.TrimSpace(config.Output.S3.Bucket) == "" {
		missing = append(missing, "output.s3.bucket")
	}

	if len(missing) == 0 {
		return nil
	}
	return &Error{Missing: missing}
}
