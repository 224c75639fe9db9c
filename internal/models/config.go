package models

import "time"

// Config represents the application configuration
type Config struct {
	Email    EmailConfig    `yaml:"email"`
	Scan     ScanConfig     `yaml:"scan"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EmailConfig represents IMAP email configuration
type EmailConfig struct {
	Imap     string        `yaml:"imap"`
	Login    string        `yaml:"login"`
	Password string        `yaml:"password"`
	MailBox  string        `yaml:"mailbox"`
	Timeout  time.Duration `yaml:"timeout"` // ex: "30s"
	Keyring  bool          `yaml:"keyring"` // look up the password in the system keyring when unset
}

// ScanConfig controls how matching messages are processed
type ScanConfig struct {
	Workers int `yaml:"workers"`
}

// DispatchConfig controls outbound unsubscribe requests
type DispatchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	UserAgent   string        `yaml:"userAgent"`
	DryRun      bool          `yaml:"dryRun"`
}

// OutputConfig describes where the discovered links are recorded
type OutputConfig struct {
	Path string    `yaml:"path"`
	S3   *S3Output `yaml:"s3"`
}

// S3Output optionally mirrors the link record to an S3 bucket
type S3Output struct {
	Bucket   string `yaml:"bucket"`
	Key      string `yaml:"key"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig represents log stream configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	File  bool   `yaml:"file"`
}

// Credentials returns the resolved mailbox credentials
func (c *Config) Credentials() Credentials {
	return Credentials{
		Username: c.Email.Login,
		Password: c.Email.Password,
		Host:     c.Email.Imap,
	}
}
