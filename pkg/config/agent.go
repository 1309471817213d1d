package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AgentConfig is the shared device identity used by the CPE and USP simulators
type AgentConfig struct {
	OUI             string
	ProductClass    string
	Manufacturer    string
	SerialNumber    string
	SoftwareVersion string
	HardwareVersion string

	LogLevel  string
	LogFormat string
}

// TR069Config configures the CWMP CPE simulator
type TR069Config struct {
	AgentConfig

	ACSURL                string
	ACSUsername           string
	ACSPassword           string
	PeriodicInformEnabled bool
	PeriodicInformPeriod  time.Duration

	ConnectionRequestAddr     string
	ConnectionRequestURL      string
	ConnectionRequestUsername string
	ConnectionRequestPassword string
	ConnectionRequestRealm    string
}

// TR369Config configures the USP agent simulator
type TR369Config struct {
	AgentConfig

	EndpointID   string
	ControllerID string
	MTPType      string

	WebSocketURL string

	MQTTBrokerURL string
	MQTTClientID  string
	MQTTUsername  string
	MQTTPassword  string
}

// LoadTR069Config loads the CPE simulator configuration, optionally from an env file
func LoadTR069Config(envFile string) (*TR069Config, error) {
	if err := loadAgentEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := &TR069Config{}
	loadAgentConfig(&cfg.AgentConfig)

	cfg.ACSURL = getEnvStringLocal("TR069_ACS_URL", "http://localhost:7547/acs")
	cfg.ACSUsername = getEnvStringLocal("TR069_ACS_USERNAME", "acs")
	cfg.ACSPassword = getEnvStringLocal("TR069_ACS_PASSWORD", "")
	cfg.PeriodicInformEnabled = getEnvBoolLocal("TR069_PERIODIC_INFORM_ENABLED", true)
	cfg.PeriodicInformPeriod = getEnvDurationLocal("TR069_PERIODIC_INFORM_INTERVAL", 300*time.Second)

	cfg.ConnectionRequestAddr = getEnvStringLocal("TR069_CONNECTION_REQUEST_ADDR", ":7548")
	cfg.ConnectionRequestURL = getEnvStringLocal("TR069_CONNECTION_REQUEST_URL", "http://localhost:7548/cr")
	cfg.ConnectionRequestUsername = getEnvStringLocal("TR069_CONNECTION_REQUEST_USERNAME", "cpe")
	cfg.ConnectionRequestPassword = getEnvStringLocal("TR069_CONNECTION_REQUEST_PASSWORD", "cpe")
	cfg.ConnectionRequestRealm = getEnvStringLocal("TR069_CONNECTION_REQUEST_REALM", "EvoACS CPE")

	return cfg, nil
}

// LoadTR369Config loads the USP agent simulator configuration, optionally from an env file
func LoadTR369Config(envFile string) (*TR369Config, error) {
	if err := loadAgentEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := &TR369Config{}
	loadAgentConfig(&cfg.AgentConfig)

	cfg.EndpointID = getEnvStringLocal("USP_ENDPOINT_ID", "proto::agent-001")
	cfg.ControllerID = getEnvStringLocal("USP_CONTROLLER_ENDPOINT_ID", "proto::evoacs-controller")
	cfg.MTPType = getEnvStringLocal("MTP_TYPE", "websocket")
	cfg.WebSocketURL = getEnvStringLocal("WEBSOCKET_URL", "ws://localhost:9000/usp")
	cfg.MQTTBrokerURL = getEnvStringLocal("MQTT_BROKER_URL", "tcp://localhost:1883")
	cfg.MQTTClientID = getEnvStringLocal("MQTT_CLIENT_ID", "usp-agent-001")
	cfg.MQTTUsername = getEnvStringLocal("MQTT_USERNAME", "")
	cfg.MQTTPassword = getEnvStringLocal("MQTT_PASSWORD", "")

	return cfg, nil
}

func loadAgentEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load environment file %s: %w", envFile, err)
	}
	return nil
}

// loadAgentConfig loads the base agent configuration common to both protocols
func loadAgentConfig(config *AgentConfig) {
	config.OUI = getEnvStringLocal("OUI", "00D04F")
	config.ProductClass = getEnvStringLocal("PRODUCT_CLASS", "IGD")
	config.Manufacturer = getEnvStringLocal("MANUFACTURER", "EvoACS")
	config.SerialNumber = getEnvStringLocal("SERIAL_NUMBER", "SIM-000001")
	config.SoftwareVersion = getEnvStringLocal("SOFTWARE_VERSION", "1.0.0")
	config.HardwareVersion = getEnvStringLocal("HARDWARE_VERSION", "1.0")

	config.LogLevel = getEnvStringLocal("LOG_LEVEL", "info")
	config.LogFormat = getEnvStringLocal("LOG_FORMAT", "console")
}

func getEnvStringLocal(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolLocal(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationLocal(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
