package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Hold duration bounds accepted from configuration and from commands.
const (
	// MinOpenDurationMs is the shortest hold time a door may be configured with.
	MinOpenDurationMs = 500

	// MaxOpenDurationMs is the longest hold time a door may be configured with.
	MaxOpenDurationMs = 5000
)

// Config is the root configuration structure for the door controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Door     DoorConfig     `yaml:"door"`
	Network  NetworkConfig  `yaml:"network"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Actuator ActuatorConfig `yaml:"actuator"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig identifies the installation.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DoorConfig contains the door cycle and command channel settings.
type DoorConfig struct {
	// ID names the door in telemetry and the access log (e.g. "door1").
	ID string `yaml:"id"`

	// CommandTopic is the channel open commands arrive on.
	CommandTopic string `yaml:"command_topic"`

	// StateTopic is the channel boundary events are published to (retained).
	StateTopic string `yaml:"state_topic"`

	// AvailabilityTopic carries the retained online/offline status (LWT).
	AvailabilityTopic string `yaml:"availability_topic"`

	// OpenDurationMs is the default hold time in milliseconds (500-5000).
	OpenDurationMs int `yaml:"open_duration_ms"`

	// CooldownMs is the dead time after every close. Fixed for the process lifetime.
	CooldownMs int `yaml:"cooldown_ms"`

	// Token is the optional shared secret structured commands must echo.
	// Empty disables token checks.
	Token string `yaml:"token"`

	// RequireTokenForLiteral makes the bare OPEN literal unusable while a
	// token is configured. Off by default: the literal bypasses the token.
	RequireTokenForLiteral bool `yaml:"require_token_for_literal"`

	// TickInterval is the period of the control loop.
	// Default: 10ms
	TickInterval time.Duration `yaml:"tick_interval"`

	// InboxSize bounds how many inbound messages may wait between ticks.
	// Default: 4
	InboxSize int `yaml:"inbox_size"`
}

// NetworkConfig contains network link settings.
type NetworkConfig struct {
	// Interface is the network interface that must be up (e.g. "wlan0").
	// Empty means any non-loopback interface with an address.
	Interface string `yaml:"interface"`

	// SSID and Passphrase enable Wi-Fi association through nmcli when the
	// link is down. Empty SSID leaves association to the operating system.
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`

	// RetryDelay is the wait between association attempts.
	// Default: 500ms
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	// RetryDelay is the fixed wait after a failed connect before the next attempt.
	// Default: 1s
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ActuatorConfig contains servo settings.
type ActuatorConfig struct {
	// Driver selects the implementation: "pwm" or "simulated".
	Driver string `yaml:"driver"`

	// ClosedAngle and OpenAngle are servo positions in degrees (0-180).
	ClosedAngle int `yaml:"closed_angle"`
	OpenAngle   int `yaml:"open_angle"`

	PWM PWMConfig `yaml:"pwm"`
}

// PWMConfig describes a Linux sysfs PWM channel driving a hobby servo.
type PWMConfig struct {
	// Chip is the sysfs directory of the PWM controller.
	// Default: /sys/class/pwm/pwmchip0
	Chip string `yaml:"chip"`

	// Channel is the PWM output on the chip.
	Channel int `yaml:"channel"`

	// FrequencyHz is the servo frame rate. Default: 50
	FrequencyHz int `yaml:"frequency_hz"`

	// MinPulseUs and MaxPulseUs map 0 and 180 degrees. Default: 500 and 2500.
	MinPulseUs int `yaml:"min_pulse_us"`
	MaxPulseUs int `yaml:"max_pulse_us"`
}

// DatabaseConfig contains SQLite access log settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the read-only status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_DOOR_SECTION_KEY
// For example: GRAYLOGIC_DOOR_MQTT_HOST, GRAYLOGIC_DOOR_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the defaults of a single-door deployment.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic",
		},
		Door: DoorConfig{
			ID:                "door1",
			CommandTopic:      "access/door1/cmd",
			StateTopic:        "access/door1/state",
			AvailabilityTopic: "access/door1/status",
			OpenDurationMs:    1500,
			CooldownMs:        2500,
			TickInterval:      10 * time.Millisecond,
			InboxSize:         4,
		},
		Network: NetworkConfig{
			RetryDelay: 500 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-door1",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				RetryDelay: time.Second,
			},
		},
		Actuator: ActuatorConfig{
			Driver:      "simulated",
			ClosedAngle: 0,
			OpenAngle:   90,
			PWM: PWMConfig{
				Chip:        "/sys/class/pwm/pwmchip0",
				Channel:     0,
				FrequencyHz: 50,
				MinPulseUs:  500,
				MaxPulseUs:  2500,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/door.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_DOOR_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Door
	if v := os.Getenv("GRAYLOGIC_DOOR_TOKEN"); v != "" {
		cfg.Door.Token = v
	}

	// Network
	if v := os.Getenv("GRAYLOGIC_DOOR_WIFI_SSID"); v != "" {
		cfg.Network.SSID = v
	}
	if v := os.Getenv("GRAYLOGIC_DOOR_WIFI_PASSPHRASE"); v != "" {
		cfg.Network.Passphrase = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_DOOR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_DOOR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_DOOR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_DOOR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_DOOR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error { //nolint:gocognit,gocyclo // flat list of independent field checks
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Door validation
	if c.Door.ID == "" {
		errs = append(errs, "door.id is required")
	}
	if c.Door.CommandTopic == "" {
		errs = append(errs, "door.command_topic is required")
	}
	if c.Door.StateTopic == "" {
		errs = append(errs, "door.state_topic is required")
	}
	if c.Door.CommandTopic != "" && c.Door.CommandTopic == c.Door.StateTopic {
		errs = append(errs, "door.command_topic and door.state_topic must differ")
	}
	if c.Door.OpenDurationMs < MinOpenDurationMs || c.Door.OpenDurationMs > MaxOpenDurationMs {
		errs = append(errs, fmt.Sprintf("door.open_duration_ms must be between %d and %d", MinOpenDurationMs, MaxOpenDurationMs))
	}
	if c.Door.CooldownMs < 0 {
		errs = append(errs, "door.cooldown_ms must not be negative")
	}
	if c.Door.TickInterval <= 0 {
		errs = append(errs, "door.tick_interval must be positive")
	}
	if c.Door.InboxSize < 1 {
		errs = append(errs, "door.inbox_size must be at least 1")
	}

	// Network validation
	if c.Network.RetryDelay <= 0 {
		errs = append(errs, "network.retry_delay must be positive")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.RetryDelay <= 0 {
		errs = append(errs, "mqtt.reconnect.retry_delay must be positive")
	}

	// Actuator validation
	switch c.Actuator.Driver {
	case "pwm", "simulated":
	default:
		errs = append(errs, `actuator.driver must be "pwm" or "simulated"`)
	}
	if !validAngle(c.Actuator.ClosedAngle) || !validAngle(c.Actuator.OpenAngle) {
		errs = append(errs, "actuator angles must be between 0 and 180")
	}
	if c.Actuator.Driver == "pwm" {
		if c.Actuator.PWM.Chip == "" {
			errs = append(errs, "actuator.pwm.chip is required for the pwm driver")
		}
		if c.Actuator.PWM.FrequencyHz <= 0 {
			errs = append(errs, "actuator.pwm.frequency_hz must be positive")
		}
		if c.Actuator.PWM.MinPulseUs <= 0 || c.Actuator.PWM.MaxPulseUs <= c.Actuator.PWM.MinPulseUs {
			errs = append(errs, "actuator.pwm pulse range is invalid")
		}
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the access log is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validAngle(deg int) bool {
	return deg >= 0 && deg <= 180
}

// OpenDuration returns the configured default hold time.
func (c *Config) OpenDuration() time.Duration {
	return time.Duration(c.Door.OpenDurationMs) * time.Millisecond
}

// Cooldown returns the fixed dead time after a close.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Door.CooldownMs) * time.Millisecond
}

// ReadTimeout returns the HTTP read timeout.
func (c APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (c APIConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout returns the HTTP idle timeout.
func (c APIConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
