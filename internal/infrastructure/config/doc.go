// Package config loads the door controller's YAML configuration.
//
// Values are resolved in three layers: built-in defaults from Default, the
// YAML file, then GRAYLOGIC_DOOR_* environment variables. Validate runs last
// and rejects servo angles outside 0-180, non-positive timings and missing
// topics before any hardware or network is touched.
//
// Secrets (GRAYLOGIC_DOOR_TOKEN, GRAYLOGIC_DOOR_WIFI_PASSPHRASE,
// GRAYLOGIC_DOOR_MQTT_PASSWORD, GRAYLOGIC_DOOR_INFLUXDB_TOKEN) belong in the
// environment, not in the file. Keep the file at 0600 regardless.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	hold := cfg.OpenDuration()
package config
