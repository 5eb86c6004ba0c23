package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	// Game API
	APIBaseURL   string
	APITimeoutMS int

	// Session
	LobbyID    string // join this lobby; empty creates one named LobbyName
	LobbyName  string
	PlayerName string
	PlayerRole string // "seeker" or "hider"

	// MQTT
	MQTTBroker          string
	MQTTClientIDClient  string
	MQTTClientIDGPS     string
	MQTTClientIDHeading string
	MQTTClientIDConsole string
	MQTTClientIDDisplay string

	// Topics
	TopicHeading  string
	TopicGPS      string
	TopicSnapshot string

	// GPS
	GPSSource       string // "serial", "mqtt" or "static"
	GPSSerialPort   string
	GPSBaudRate     int
	StaticLatitude  float64
	StaticLongitude float64

	// Heading
	HeadingSource     string  // "mock", "mqtt", "bridge", "imu" or "none"
	HeadingCapability string  // used by the mqtt source
	MockHeadingRate   float64 // degrees per second

	// IMU (MPU9250 over SPI, HEADING_SOURCE=imu)
	IMUSPIDevice string
	IMUCSPin     string

	// Timing (milliseconds)
	LocationInterval   int
	PollInterval       int
	HeadingInterval    int
	ConsoleLogInterval int

	// Geodesy
	GeoZeroIsMissing bool

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Keys lists every recognised configuration key. Process environment
// variables with the same name override values read from the file.
var Keys = []string{
	"API_BASE_URL", "API_TIMEOUT_MS",
	"LOBBY_ID", "LOBBY_NAME", "PLAYER_NAME", "PLAYER_ROLE",
	"MQTT_BROKER", "MQTT_CLIENT_ID_CLIENT", "MQTT_CLIENT_ID_GPS", "MQTT_CLIENT_ID_HEADING",
	"MQTT_CLIENT_ID_CONSOLE", "MQTT_CLIENT_ID_DISPLAY",
	"TOPIC_HEADING", "TOPIC_GPS", "TOPIC_SNAPSHOT",
	"GPS_SOURCE", "GPS_SERIAL_PORT", "GPS_BAUD_RATE", "STATIC_LATITUDE", "STATIC_LONGITUDE",
	"HEADING_SOURCE", "HEADING_CAPABILITY", "MOCK_HEADING_RATE",
	"IMU_SPI_DEVICE", "IMU_CS_PIN",
	"LOCATION_INTERVAL", "POLL_INTERVAL", "HEADING_INTERVAL", "CONSOLE_LOG_INTERVAL",
	"GEO_ZERO_IS_MISSING",
	"WEB_SERVER_PORT", "WEB_STATIC_DIR",
	"DISPLAY_I2C_BUS", "DISPLAY_UPDATE_INTERVAL",
}

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "manhunt_config.txt"

// Path returns $MANHUNT_CONFIG if set, otherwise DefaultPath.
func Path() string {
	if p := os.Getenv("MANHUNT_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Package-level singleton. External code must use InitGlobal() to set and
// Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		APIBaseURL:          "https://api.hankinit.work/manhunt-api",
		APITimeoutMS:        10000,
		LobbyName:           "manhunt",
		PlayerRole:          "hider",
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDClient:  "manhunt-client",
		MQTTClientIDGPS:     "manhunt-gps-producer",
		MQTTClientIDHeading: "manhunt-heading-producer",
		MQTTClientIDConsole: "manhunt-console",
		MQTTClientIDDisplay: "manhunt-display",
		TopicHeading:        "manhunt/heading",
		TopicGPS:            "manhunt/gps",
		TopicSnapshot:       "manhunt/snapshot",
		GPSSource:           "static",
		GPSSerialPort:       "/dev/serial0",
		GPSBaudRate:         9600,
		HeadingSource:       "mock",
		HeadingCapability:   "absolute",
		MockHeadingRate:     30,
		IMUSPIDevice:        "/dev/spidev6.0",
		IMUCSPin:            "18",
		LocationInterval:    2000,
		PollInterval:        2000,
		HeadingInterval:     100,
		ConsoleLogInterval:  1000,
		GeoZeroIsMissing:    true,
		WebServerPort:       8080,
		WebStaticDir:        "./web",

		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file, applies environment overrides and
// returns the validated Config. An empty path uses defaults and the
// environment only.
func Load(configPath string) (*Config, error) {
	values := map[string]string{}
	if configPath != "" {
		var err error
		values, err = godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	for _, key := range Keys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}
	return FromMap(values)
}

// FromMap builds a Config from KEY=VALUE pairs on top of Defaults.
func FromMap(values map[string]string) (*Config, error) {
	cfg := Defaults()
	for key, value := range values {
		if err := cfg.setValue(key, strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Game API
	case "API_BASE_URL":
		c.APIBaseURL = strings.TrimRight(value, "/")
	case "API_TIMEOUT_MS":
		return setPositiveInt(&c.APITimeoutMS, key, value)

	// Session
	case "LOBBY_ID":
		c.LobbyID = value
	case "LOBBY_NAME":
		c.LobbyName = value
	case "PLAYER_NAME":
		c.PlayerName = value
	case "PLAYER_ROLE":
		v := strings.ToLower(value)
		if v != "seeker" && v != "hider" {
			return fmt.Errorf("PLAYER_ROLE must be seeker or hider, got %q", value)
		}
		c.PlayerRole = v

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CLIENT":
		c.MQTTClientIDClient = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_HEADING":
		c.MQTTClientIDHeading = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_HEADING":
		c.TopicHeading = value
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_SNAPSHOT":
		c.TopicSnapshot = value

	// GPS
	case "GPS_SOURCE":
		switch value {
		case "serial", "mqtt", "static":
			c.GPSSource = value
		default:
			return fmt.Errorf("GPS_SOURCE must be serial, mqtt or static, got %q", value)
		}
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return setPositiveInt(&c.GPSBaudRate, key, value)
	case "STATIC_LATITUDE":
		lat, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STATIC_LATITUDE %q: %w", value, err)
		}
		if lat < -90 || lat > 90 {
			return fmt.Errorf("STATIC_LATITUDE must be -90..90, got %g", lat)
		}
		c.StaticLatitude = lat
	case "STATIC_LONGITUDE":
		lon, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STATIC_LONGITUDE %q: %w", value, err)
		}
		if lon < -180 || lon > 180 {
			return fmt.Errorf("STATIC_LONGITUDE must be -180..180, got %g", lon)
		}
		c.StaticLongitude = lon

	// Heading
	case "HEADING_SOURCE":
		switch value {
		case "mock", "mqtt", "bridge", "imu", "none":
			c.HeadingSource = value
		default:
			return fmt.Errorf("HEADING_SOURCE must be mock, mqtt, bridge, imu or none, got %q", value)
		}
	case "HEADING_CAPABILITY":
		c.HeadingCapability = value
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "MOCK_HEADING_RATE":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_HEADING_RATE %q: %w", value, err)
		}
		c.MockHeadingRate = rate

	// Timing
	case "LOCATION_INTERVAL":
		return setPositiveInt(&c.LocationInterval, key, value)
	case "POLL_INTERVAL":
		return setPositiveInt(&c.PollInterval, key, value)
	case "HEADING_INTERVAL":
		return setPositiveInt(&c.HeadingInterval, key, value)
	case "CONSOLE_LOG_INTERVAL":
		return setPositiveInt(&c.ConsoleLogInterval, key, value)

	// Geodesy
	case "GEO_ZERO_IS_MISSING":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid GEO_ZERO_IS_MISSING %q: %w", value, err)
		}
		c.GeoZeroIsMissing = b

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", port)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		return setPositiveInt(&c.DisplayUpdateInterval, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return nil
}

func setPositiveInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %d", key, v)
	}
	*dst = v
	return nil
}

// validate checks cross-field requirements.
func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.LobbyID == "" && c.LobbyName == "" {
		return fmt.Errorf("LOBBY_ID or LOBBY_NAME is required")
	}
	if c.GPSSource == "serial" && c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required when GPS_SOURCE=serial")
	}
	if (c.GPSSource == "mqtt" || c.HeadingSource == "mqtt") && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for mqtt sources")
	}
	return nil
}

// APITimeout returns the API request timeout.
func (c *Config) APITimeout() time.Duration { return ms(c.APITimeoutMS) }

// LocationEvery returns the location reporting period.
func (c *Config) LocationEvery() time.Duration { return ms(c.LocationInterval) }

// PollEvery returns the roster polling period.
func (c *Config) PollEvery() time.Duration { return ms(c.PollInterval) }

// HeadingEvery returns the heading sampling period.
func (c *Config) HeadingEvery() time.Duration { return ms(c.HeadingInterval) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
