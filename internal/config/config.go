// Package config loads bridge configuration from a JSON file via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SignalConfig holds messaging daemon settings.
type SignalConfig struct {
	PhoneNumber string `json:"phoneNumber" mapstructure:"phoneNumber"`
	DaemonHost  string `json:"daemonHost" mapstructure:"daemonHost"`
	DaemonPort  int    `json:"daemonPort" mapstructure:"daemonPort"`

	// ManageDaemon controls whether the bridge starts and supervises the
	// signal-cli subprocess itself.
	ManageDaemon bool `json:"manageDaemon" mapstructure:"manageDaemon"`
}

// TAKConfig holds CoT output settings.
type TAKConfig struct {
	CotURL        string  `json:"cotUrl" mapstructure:"cotUrl"`
	StaleSeconds  int     `json:"staleSeconds" mapstructure:"staleSeconds"`
	CircularError float64 `json:"circularError" mapstructure:"circularError"`
	LinearError   float64 `json:"linearError" mapstructure:"linearError"`
}

// Stale returns the configured marker staleness as a duration.
func (c TAKConfig) Stale() time.Duration {
	return time.Duration(c.StaleSeconds) * time.Second
}

// GeoConfig holds input coordinate system settings.
type GeoConfig struct {
	// InputEPSG is the EPSG code chat coordinates arrive in. 4326 means
	// plain lat/lon.
	InputEPSG int `json:"inputEPSG" mapstructure:"inputEPSG"`
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds statistics reporting settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`

	ReportInterval time.Duration `json:"reportInterval" mapstructure:"reportInterval"`
}

// Load reads configuration from sigtak_bridge.cfg.json and sets default
// values. configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("signal.daemonHost", "127.0.0.1")
	viper.SetDefault("signal.daemonPort", 7583)
	viper.SetDefault("signal.manageDaemon", true)

	viper.SetDefault("tak.cotUrl", "udp://239.2.3.1:6969")
	viper.SetDefault("tak.staleSeconds", 120)
	viper.SetDefault("tak.circularError", 50)
	viper.SetDefault("tak.linearError", 9999999)

	viper.SetDefault("geo.inputEPSG", 4326)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "sigtak-bridge")
	viper.SetDefault("otel.batchTimeout", 5*time.Second)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "sigtak")
	viper.SetDefault("influx.bucket", "bridge_stats")
	viper.SetDefault("influx.reportInterval", time.Minute)

	viper.SetConfigName("sigtak_bridge.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// Typed getters read leaf keys individually so defaults apply even when
// the config file only sets part of a section.

// GetSignalConfig returns the daemon connection settings.
func GetSignalConfig() SignalConfig {
	return SignalConfig{
		PhoneNumber:  viper.GetString("signal.phoneNumber"),
		DaemonHost:   viper.GetString("signal.daemonHost"),
		DaemonPort:   viper.GetInt("signal.daemonPort"),
		ManageDaemon: viper.GetBool("signal.manageDaemon"),
	}
}

// GetTAKConfig returns the CoT output settings.
func GetTAKConfig() TAKConfig {
	return TAKConfig{
		CotURL:        viper.GetString("tak.cotUrl"),
		StaleSeconds:  viper.GetInt("tak.staleSeconds"),
		CircularError: viper.GetFloat64("tak.circularError"),
		LinearError:   viper.GetFloat64("tak.linearError"),
	}
}

// GetGeoConfig returns the input coordinate system settings.
func GetGeoConfig() GeoConfig {
	return GeoConfig{
		InputEPSG: viper.GetInt("geo.inputEPSG"),
	}
}

// GetGraylogConfig returns the GELF shipping settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the statistics reporting settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:        viper.GetBool("influx.enabled"),
		Protocol:       viper.GetString("influx.protocol"),
		Host:           viper.GetString("influx.host"),
		Port:           viper.GetString("influx.port"),
		Token:          viper.GetString("influx.token"),
		Org:            viper.GetString("influx.org"),
		Bucket:         viper.GetString("influx.bucket"),
		ReportInterval: viper.GetDuration("influx.reportInterval"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}
