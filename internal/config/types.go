package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// File mirrors the leash.yaml document structure.
type File struct {
	Version  string               `yaml:"version"`
	Defaults Defaults             `yaml:"defaults"`
	Tasks    map[string]*TaskSpec `yaml:"tasks"`
}

// Defaults captures fallback supervision settings applied to every task that
// does not override them.
type Defaults struct {
	GracePeriod  Duration `yaml:"gracePeriod"`
	Interval     Duration `yaml:"interval"`
	CheckTimeout Duration `yaml:"checkTimeout"`
	KillAttempts int      `yaml:"killAttempts"`
	Capture      *bool    `yaml:"capture"`
}

// TaskSpec describes one supervised command.
type TaskSpec struct {
	Command     string            `yaml:"command"`
	Workdir     string            `yaml:"workdir"`
	Env         map[string]string `yaml:"env"`
	ReplaceEnv  bool              `yaml:"replaceEnv"`
	Strict      bool              `yaml:"strict"`
	Timeout     Duration          `yaml:"timeout"`
	Check       *CheckSpec        `yaml:"check"`
	GracePeriod Duration          `yaml:"gracePeriod"`
	Capture     *bool             `yaml:"capture"`
}

// CheckSpec configures the periodic liveness check of a task. Exactly one of
// the File, Command, HTTP or TCP sources must be set.
type CheckSpec struct {
	Interval Duration       `yaml:"interval"`
	Timeout  Duration       `yaml:"timeout"`
	File     string         `yaml:"file"`
	Command  []string       `yaml:"command"`
	HTTP     *HTTPCheckSpec `yaml:"http"`
	TCP      *TCPCheckSpec  `yaml:"tcp"`
}

// HTTPCheckSpec configures an HTTP liveness check.
type HTTPCheckSpec struct {
	URL          string `yaml:"url"`
	ExpectStatus []int  `yaml:"expectStatus"`
}

// TCPCheckSpec configures a TCP dial liveness check.
type TCPCheckSpec struct {
	Address string `yaml:"address"`
}

// sources counts how many check sources are configured.
func (c *CheckSpec) sources() int {
	n := 0
	if c.File != "" {
		n++
	}
	if len(c.Command) > 0 {
		n++
	}
	if c.HTTP != nil {
		n++
	}
	if c.TCP != nil {
		n++
	}
	return n
}
