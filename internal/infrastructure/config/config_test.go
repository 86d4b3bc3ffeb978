package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "door.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
site:
  id: "test-site"
door:
  id: "front"
  command_topic: "access/front/cmd"
  state_topic: "access/front/state"
  open_duration_ms: 3000
  cooldown_ms: 2000
  token: "SECRET1"
  tick_interval: 20ms
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "door-front"
  qos: 1
  reconnect:
    retry_delay: 2s
actuator:
  driver: simulated
  closed_angle: 10
  open_angle: 100
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Door.CommandTopic != "access/front/cmd" {
		t.Errorf("Door.CommandTopic = %q, want %q", cfg.Door.CommandTopic, "access/front/cmd")
	}
	if cfg.OpenDuration() != 3*time.Second {
		t.Errorf("OpenDuration() = %v, want 3s", cfg.OpenDuration())
	}
	if cfg.Cooldown() != 2*time.Second {
		t.Errorf("Cooldown() = %v, want 2s", cfg.Cooldown())
	}
	if cfg.Door.TickInterval != 20*time.Millisecond {
		t.Errorf("Door.TickInterval = %v, want 20ms", cfg.Door.TickInterval)
	}
	if cfg.MQTT.Reconnect.RetryDelay != 2*time.Second {
		t.Errorf("MQTT.Reconnect.RetryDelay = %v, want 2s", cfg.MQTT.Reconnect.RetryDelay)
	}
	if cfg.Actuator.OpenAngle != 100 {
		t.Errorf("Actuator.OpenAngle = %d, want 100", cfg.Actuator.OpenAngle)
	}

	// Untouched sections keep their defaults
	if cfg.Door.AvailabilityTopic != "access/door1/status" {
		t.Errorf("Door.AvailabilityTopic = %q, want default", cfg.Door.AvailabilityTopic)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/door.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
door:
  open_duration_ms: 50
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for open_duration_ms, got nil")
	}
	if !strings.Contains(err.Error(), "open_duration_ms") {
		t.Errorf("Load() error = %v, want mention of open_duration_ms", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing command topic",
			mutate:  func(c *Config) { c.Door.CommandTopic = "" },
			wantErr: true,
		},
		{
			name:    "command and state topics equal",
			mutate:  func(c *Config) { c.Door.StateTopic = c.Door.CommandTopic },
			wantErr: true,
		},
		{
			name:    "open duration below range",
			mutate:  func(c *Config) { c.Door.OpenDurationMs = 499 },
			wantErr: true,
		},
		{
			name:    "open duration above range",
			mutate:  func(c *Config) { c.Door.OpenDurationMs = 5001 },
			wantErr: true,
		},
		{
			name:    "open duration at bounds",
			mutate:  func(c *Config) { c.Door.OpenDurationMs = 5000 },
			wantErr: false,
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Door.CooldownMs = -1 },
			wantErr: true,
		},
		{
			name:    "zero inbox",
			mutate:  func(c *Config) { c.Door.InboxSize = 0 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "unknown actuator driver",
			mutate:  func(c *Config) { c.Actuator.Driver = "stepper" },
			wantErr: true,
		},
		{
			name:    "angle out of range",
			mutate:  func(c *Config) { c.Actuator.OpenAngle = 270 },
			wantErr: true,
		},
		{
			name: "pwm with inverted pulse range",
			mutate: func(c *Config) {
				c.Actuator.Driver = "pwm"
				c.Actuator.PWM.MinPulseUs = 2500
				c.Actuator.PWM.MaxPulseUs = 500
			},
			wantErr: true,
		},
		{
			name: "enabled access log without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name: "disabled api ignores port",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.API.ReadTimeout().Seconds(); got != 30 {
		t.Errorf("ReadTimeout() = %v, want 30", got)
	}

	if got := cfg.API.WriteTimeout().Seconds(); got != 45 {
		t.Errorf("WriteTimeout() = %v, want 45", got)
	}

	if got := cfg.API.IdleTimeout().Seconds(); got != 60 {
		t.Errorf("IdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("GRAYLOGIC_DOOR_TOKEN", "SECRET1")
	t.Setenv("GRAYLOGIC_DOOR_WIFI_SSID", "lab")
	t.Setenv("GRAYLOGIC_DOOR_WIFI_PASSPHRASE", "hunter2")
	t.Setenv("GRAYLOGIC_DOOR_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_DOOR_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_DOOR_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_DOOR_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_DOOR_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"Door.Token", cfg.Door.Token, "SECRET1"},
		{"Network.SSID", cfg.Network.SSID, "lab"},
		{"Network.Passphrase", cfg.Network.Passphrase, "hunter2"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Door.OpenDurationMs != 1500 {
		t.Errorf("Door.OpenDurationMs = %d, want 1500", cfg.Door.OpenDurationMs)
	}
	if cfg.Door.CooldownMs != 2500 {
		t.Errorf("Door.CooldownMs = %d, want 2500", cfg.Door.CooldownMs)
	}
	if cfg.Door.Token != "" {
		t.Error("default token should be empty (checks disabled)")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Actuator.ClosedAngle != 0 || cfg.Actuator.OpenAngle != 90 {
		t.Errorf("actuator angles = %d/%d, want 0/90", cfg.Actuator.ClosedAngle, cfg.Actuator.OpenAngle)
	}
}
