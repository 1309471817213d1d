package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "configs/evoacs.yml"

// YAMLConfig represents the on-disk structure of configs/evoacs.yml
type YAMLConfig struct {
	Service struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
	} `yaml:"service"`

	HTTP struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"http"`

	CWMP struct {
		Path           string `yaml:"path"`
		SessionTimeout string `yaml:"session_timeout"`
		CookieName     string `yaml:"cookie_name"`
		AuthEnabled    bool   `yaml:"auth_enabled"`
		Username       string `yaml:"username"`
		Password       string `yaml:"password"`
	} `yaml:"cwmp"`

	USP struct {
		ControllerEndpointID string `yaml:"controller_endpoint_id"`
		RecordVersion        string `yaml:"record_version"`
		PendingRequestTTL    string `yaml:"pending_request_ttl"`
	} `yaml:"usp"`

	MTP struct {
		WebSocket struct {
			Enabled      bool   `yaml:"enabled"`
			Port         int    `yaml:"port"`
			Path         string `yaml:"path"`
			PollInterval string `yaml:"poll_interval"`
			QueueBackend string `yaml:"queue_backend"`
		} `yaml:"websocket"`

		MQTT struct {
			Enabled        bool   `yaml:"enabled"`
			BrokerURL      string `yaml:"broker_url"`
			ClientID       string `yaml:"client_id"`
			Username       string `yaml:"username"`
			Password       string `yaml:"password"`
			SubscribeTopic string `yaml:"subscribe_topic"`
			KeepAlive      string `yaml:"keep_alive"`
			PublishTimeout string `yaml:"publish_timeout"`
		} `yaml:"mqtt"`
	} `yaml:"mtp"`

	ConnectionRequest struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"connection_request"`

	Database struct {
		Driver       string `yaml:"driver"`
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Name         string `yaml:"name"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		SSLMode      string `yaml:"sslmode"`
		Path         string `yaml:"path"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		GroupID string   `yaml:"group_id"`
		Topics  struct {
			DeviceEvents string `yaml:"device_events"`
			TaskEvents   string `yaml:"task_events"`
			TaskCreated  string `yaml:"task_created"`
		} `yaml:"topics"`
	} `yaml:"kafka"`

	Consul struct {
		Enabled    bool     `yaml:"enabled"`
		Addr       string   `yaml:"addr"`
		Datacenter string   `yaml:"datacenter"`
		Tags       []string `yaml:"tags"`
	} `yaml:"consul"`

	GRPC struct {
		HealthPort int `yaml:"health_port"`
	} `yaml:"grpc"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Config holds the resolved process configuration
type Config struct {
	ServiceName string
	Environment string

	HTTP              HTTPConfig
	CWMP              CWMPConfig
	USP               USPConfig
	WebSocket         WebSocketConfig
	MQTT              MQTTConfig
	ConnectionRequest ConnectionRequestConfig
	Database          DatabaseConfig
	Redis             RedisConfig
	Kafka             KafkaConfig
	Consul            ConsulConfig
	GRPCHealthPort    int
	Logging           LoggingConfig
}

// HTTPConfig configures the shared HTTP listener (CWMP, HTTP-poll, ops API)
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CWMPConfig holds TR-069 ACS settings
type CWMPConfig struct {
	Path           string
	SessionTimeout time.Duration
	CookieName     string
	AuthEnabled    bool
	Username       string
	Password       string
}

// USPConfig holds TR-369 controller settings
type USPConfig struct {
	ControllerEndpointID string
	RecordVersion        string
	PendingRequestTTL    time.Duration
}

// WebSocketConfig holds the raw WebSocket MTP settings
type WebSocketConfig struct {
	Enabled      bool
	Port         int
	Path         string
	PollInterval time.Duration
	QueueBackend string
}

// MQTTConfig holds the MQTT MTP settings
type MQTTConfig struct {
	Enabled        bool
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	SubscribeTopic string
	KeepAlive      time.Duration
	PublishTimeout time.Duration
}

// ConnectionRequestConfig holds outbound connection-request settings
type ConnectionRequestConfig struct {
	Timeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
	Topics  KafkaTopicsConfig
}

// KafkaTopicsConfig names the topics the ACS produces to and consumes from
type KafkaTopicsConfig struct {
	DeviceEvents string
	TaskEvents   string
	TaskCreated  string
}

// ConsulConfig holds service registration settings
type ConsulConfig struct {
	Enabled    bool
	Addr       string
	Datacenter string
	Tags       []string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// loadYAMLConfig loads configuration from YAML file
func loadYAMLConfig(configPath string) (*YAMLConfig, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig YAMLConfig
	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &yamlConfig, nil
}

// LoadEnvFile loads variables from a .env file without overriding ones already set
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load environment file %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from the default YAML file with environment variable overrides
func Load() *Config {
	return LoadWithPath("")
}

// LoadWithPath loads configuration from specified YAML file with environment variable overrides
func LoadWithPath(configPath string) *Config {
	if err := LoadEnvFile(os.Getenv("EVOACS_ENV_FILE")); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	yamlConfig, err := loadYAMLConfig(configPath)
	if err != nil {
		// Fall back to environment-only configuration
		fmt.Printf("Warning: Failed to load YAML config (%v), using environment variables only\n", err)
		yamlConfig = &YAMLConfig{}
	}

	y := yamlConfig
	cfg := &Config{
		ServiceName: getEnvWithYAMLFallback("SERVICE_NAME", y.Service.Name, "evoacs"),
		Environment: getEnvWithYAMLFallback("ENVIRONMENT", y.Service.Environment, "development"),

		HTTP: HTTPConfig{
			Addr:         getEnvWithYAMLFallback("HTTP_ADDR", y.HTTP.Addr, ":7547"),
			ReadTimeout:  getDurationEnvWithYAMLFallback("HTTP_READ_TIMEOUT", y.HTTP.ReadTimeout, 30*time.Second),
			WriteTimeout: getDurationEnvWithYAMLFallback("HTTP_WRITE_TIMEOUT", y.HTTP.WriteTimeout, 30*time.Second),
		},

		CWMP: CWMPConfig{
			Path:           getEnvWithYAMLFallback("CWMP_PATH", y.CWMP.Path, "/acs"),
			SessionTimeout: getDurationEnvWithYAMLFallback("CWMP_SESSION_TIMEOUT", y.CWMP.SessionTimeout, 30*time.Second),
			CookieName:     getEnvWithYAMLFallback("CWMP_COOKIE_NAME", y.CWMP.CookieName, "TR069SessionID"),
			AuthEnabled:    getBoolEnvWithYAMLFallback("CWMP_AUTH_ENABLED", y.CWMP.AuthEnabled, false),
			Username:       getEnvWithYAMLFallback("CWMP_USERNAME", y.CWMP.Username, "acs"),
			Password:       getEnvWithYAMLFallback("CWMP_PASSWORD", y.CWMP.Password, ""),
		},

		USP: USPConfig{
			ControllerEndpointID: getEnvWithYAMLFallback("USP_CONTROLLER_ENDPOINT_ID", y.USP.ControllerEndpointID, "proto::evoacs-controller"),
			RecordVersion:        getEnvWithYAMLFallback("USP_RECORD_VERSION", y.USP.RecordVersion, "1.3"),
			PendingRequestTTL:    getDurationEnvWithYAMLFallback("USP_PENDING_REQUEST_TTL", y.USP.PendingRequestTTL, time.Hour),
		},

		WebSocket: WebSocketConfig{
			Enabled:      getBoolEnvWithYAMLFallback("MTP_WEBSOCKET_ENABLED", y.MTP.WebSocket.Enabled, true),
			Port:         getIntEnvWithYAMLFallback("MTP_WEBSOCKET_PORT", y.MTP.WebSocket.Port, 9000),
			Path:         getEnvWithYAMLFallback("MTP_WEBSOCKET_PATH", y.MTP.WebSocket.Path, "/usp"),
			PollInterval: getDurationEnvWithYAMLFallback("MTP_WEBSOCKET_POLL_INTERVAL", y.MTP.WebSocket.PollInterval, 200*time.Millisecond),
			QueueBackend: getEnvWithYAMLFallback("MTP_WEBSOCKET_QUEUE_BACKEND", y.MTP.WebSocket.QueueBackend, "memory"),
		},

		MQTT: MQTTConfig{
			Enabled:        getBoolEnvWithYAMLFallback("MTP_MQTT_ENABLED", y.MTP.MQTT.Enabled, false),
			BrokerURL:      getEnvWithYAMLFallback("MQTT_BROKER_URL", y.MTP.MQTT.BrokerURL, "tcp://localhost:1883"),
			ClientID:       getEnvWithYAMLFallback("MQTT_CLIENT_ID", y.MTP.MQTT.ClientID, "evoacs-controller"),
			Username:       getEnvWithYAMLFallback("MQTT_USERNAME", y.MTP.MQTT.Username, ""),
			Password:       getEnvWithYAMLFallback("MQTT_PASSWORD", y.MTP.MQTT.Password, ""),
			SubscribeTopic: getEnvWithYAMLFallback("MQTT_SUBSCRIBE_TOPIC", y.MTP.MQTT.SubscribeTopic, ""),
			KeepAlive:      getDurationEnvWithYAMLFallback("MQTT_KEEP_ALIVE", y.MTP.MQTT.KeepAlive, 60*time.Second),
			PublishTimeout: getDurationEnvWithYAMLFallback("MQTT_PUBLISH_TIMEOUT", y.MTP.MQTT.PublishTimeout, 5*time.Second),
		},

		ConnectionRequest: ConnectionRequestConfig{
			Timeout: getDurationEnvWithYAMLFallback("CONNECTION_REQUEST_TIMEOUT", y.ConnectionRequest.Timeout, 10*time.Second),
		},

		Database: DatabaseConfig{
			Driver:       getEnvWithYAMLFallback("DB_DRIVER", y.Database.Driver, "postgres"),
			Host:         getEnvWithYAMLFallback("DB_HOST", y.Database.Host, "localhost"),
			Port:         getEnvWithYAMLFallback("DB_PORT", intToString(y.Database.Port), "5432"),
			Name:         getEnvWithYAMLFallback("DB_NAME", y.Database.Name, "evoacs"),
			User:         getEnvWithYAMLFallback("DB_USER", y.Database.User, "evoacs"),
			Password:     getEnvWithYAMLFallback("DB_PASSWORD", y.Database.Password, ""),
			SSLMode:      getEnvWithYAMLFallback("DB_SSLMODE", y.Database.SSLMode, "disable"),
			Path:         getEnvWithYAMLFallback("DB_PATH", y.Database.Path, "evoacs.db"),
			MaxOpenConns: getIntEnvWithYAMLFallback("DB_MAX_OPEN_CONNS", y.Database.MaxOpenConns, 25),
			MaxIdleConns: getIntEnvWithYAMLFallback("DB_MAX_IDLE_CONNS", y.Database.MaxIdleConns, 5),
		},

		Redis: RedisConfig{
			Enabled:  getBoolEnvWithYAMLFallback("REDIS_ENABLED", y.Redis.Enabled, false),
			Addr:     getEnvWithYAMLFallback("REDIS_ADDR", y.Redis.Addr, "localhost:6379"),
			Password: getEnvWithYAMLFallback("REDIS_PASSWORD", y.Redis.Password, ""),
			DB:       getIntEnvWithYAMLFallback("REDIS_DB", y.Redis.DB, 0),
		},

		Kafka: KafkaConfig{
			Enabled: getBoolEnvWithYAMLFallback("KAFKA_ENABLED", y.Kafka.Enabled, false),
			Brokers: getListEnvWithYAMLFallback("KAFKA_BROKERS", y.Kafka.Brokers, []string{"localhost:9092"}),
			GroupID: getEnvWithYAMLFallback("KAFKA_GROUP_ID", y.Kafka.GroupID, "evoacs"),
			Topics: KafkaTopicsConfig{
				DeviceEvents: getEnvWithYAMLFallback("KAFKA_TOPIC_DEVICE_EVENTS", y.Kafka.Topics.DeviceEvents, "evoacs.device.events"),
				TaskEvents:   getEnvWithYAMLFallback("KAFKA_TOPIC_TASK_EVENTS", y.Kafka.Topics.TaskEvents, "evoacs.task.events"),
				TaskCreated:  getEnvWithYAMLFallback("KAFKA_TOPIC_TASK_CREATED", y.Kafka.Topics.TaskCreated, "evoacs.task.created"),
			},
		},

		Consul: ConsulConfig{
			Enabled:    getBoolEnvWithYAMLFallback("CONSUL_ENABLED", y.Consul.Enabled, false),
			Addr:       getEnvWithYAMLFallback("CONSUL_ADDR", y.Consul.Addr, "localhost:8500"),
			Datacenter: getEnvWithYAMLFallback("CONSUL_DATACENTER", y.Consul.Datacenter, "dc1"),
			Tags:       getListEnvWithYAMLFallback("CONSUL_TAGS", y.Consul.Tags, []string{"acs", "tr069", "tr369"}),
		},

		GRPCHealthPort: getIntEnvWithYAMLFallback("GRPC_HEALTH_PORT", y.GRPC.HealthPort, 9090),

		Logging: LoggingConfig{
			Level:  getEnvWithYAMLFallback("LOG_LEVEL", y.Logging.Level, "info"),
			Format: getEnvWithYAMLFallback("LOG_FORMAT", y.Logging.Format, "console"),
		},
	}

	if cfg.MQTT.SubscribeTopic == "" {
		cfg.MQTT.SubscribeTopic = "usp/agent/+/request"
	}

	return cfg
}

// Validate validates that all critical configuration values are present
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("missing http.addr in evoacs.yml")
	}
	if c.CWMP.SessionTimeout <= 0 {
		return fmt.Errorf("cwmp.session_timeout must be positive")
	}
	if c.CWMP.AuthEnabled && c.CWMP.Password == "" {
		return fmt.Errorf("cwmp.password is required when cwmp.auth_enabled is set")
	}
	if c.USP.ControllerEndpointID == "" {
		return fmt.Errorf("missing usp.controller_endpoint_id in evoacs.yml")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return fmt.Errorf("missing database host/name/user in evoacs.yml")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("missing database.path in evoacs.yml")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.WebSocket.Enabled && (c.WebSocket.Port <= 0 || c.WebSocket.Port > 65535) {
		return fmt.Errorf("invalid mtp.websocket.port %d", c.WebSocket.Port)
	}
	if c.WebSocket.QueueBackend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("mtp.websocket.queue_backend=redis requires redis.enabled")
	}
	if c.MQTT.Enabled && c.MQTT.BrokerURL == "" {
		return fmt.Errorf("missing mtp.mqtt.broker_url in evoacs.yml")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("missing kafka.brokers in evoacs.yml")
	}

	return nil
}

// GetDSN returns database connection string
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode
}

func intToString(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// getEnvWithYAMLFallback gets environment variable with YAML fallback, then default fallback
func getEnvWithYAMLFallback(envKey, yamlValue, defaultValue string) string {
	envValue := strings.TrimSpace(os.Getenv(envKey))
	if envValue != "" {
		return envValue
	}
	if yamlValue != "" && yamlValue != "0" {
		return yamlValue
	}
	return defaultValue
}

// getBoolEnvWithYAMLFallback gets boolean environment variable with YAML fallback, then default fallback
func getBoolEnvWithYAMLFallback(envKey string, yamlValue, defaultValue bool) bool {
	envValue := os.Getenv(envKey)
	if envValue != "" {
		boolValue, err := strconv.ParseBool(envValue)
		if err == nil {
			return boolValue
		}
	}
	if yamlValue {
		return yamlValue
	}
	return defaultValue
}

// getIntEnvWithYAMLFallback gets integer environment variable with YAML fallback, then default fallback
func getIntEnvWithYAMLFallback(envKey string, yamlValue, defaultValue int) int {
	envValue := os.Getenv(envKey)
	if envValue != "" {
		intValue, err := strconv.Atoi(envValue)
		if err == nil {
			return intValue
		}
	}
	if yamlValue != 0 {
		return yamlValue
	}
	return defaultValue
}

// getDurationEnvWithYAMLFallback parses Go duration strings ("30s", "1h") from env or YAML
func getDurationEnvWithYAMLFallback(envKey, yamlValue string, defaultValue time.Duration) time.Duration {
	raw := getEnvWithYAMLFallback(envKey, yamlValue, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

// getListEnvWithYAMLFallback reads a comma separated env list with YAML fallback
func getListEnvWithYAMLFallback(envKey string, yamlValue, defaultValue []string) []string {
	if envValue := strings.TrimSpace(os.Getenv(envKey)); envValue != "" {
		parts := strings.Split(envValue, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	if len(yamlValue) > 0 {
		return yamlValue
	}
	return defaultValue
}
