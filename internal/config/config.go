package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации навигационного сервиса.
type Config struct {
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Movement    MovementConfig    `yaml:"movement"`
	Storage     StorageConfig     `yaml:"storage"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Events      EventsConfig      `yaml:"events"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Auth        AuthConfig        `yaml:"auth"`
	Cache       CacheConfig       `yaml:"cache"`
}

// PathfindingConfig параметры поиска пути. Меняются во время работы,
// но влияют только на последующие поиски.
type PathfindingConfig struct {
	FixedUnitCrossingCost  int  `yaml:"fixed_unit_crossing_cost"`
	MovingUnitCrossingCost int  `yaml:"moving_unit_crossing_cost"`
	AssumeUnseenKnown      bool `yaml:"assume_unseen_known"`
	UnknownTerrainCost     int  `yaml:"unknown_terrain_cost"`
	AllowCornerCutting     bool `yaml:"allow_corner_cutting"`
	MaxSearchLength        int  `yaml:"max_search_length"`
	MaxExpansions          int  `yaml:"max_expansions"`
}

type MovementConfig struct {
	MaxWaitCycles int `yaml:"max_wait_cycles"`
}

type StorageConfig struct {
	Path        string `yaml:"path"`
	Compression bool   `yaml:"compression"`
}

type ServerConfig struct {
	RESTPort   int   `yaml:"rest_port"`
	MapSeed    int64 `yaml:"map_seed"`
	MapWidth   int   `yaml:"map_width"`
	MapHeight  int   `yaml:"map_height"`
	TickMillis int   `yaml:"tick_ms"` // Период автоматического цикла, 0 - только через API
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// EventsConfig настройки шины событий. Без NATSURL используется in-memory шина.
type EventsConfig struct {
	NATSURL    string `yaml:"nats_url"`
	Stream     string `yaml:"stream"`
	Retention  int    `yaml:"retention_hours"`
	BufferSize int    `yaml:"buffer_size"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// CacheConfig настройки кеша сводок областей. Без RedisURL кеш живёт в памяти процесса.
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

// GetRedisURL возвращает адрес Redis: config -> env NAV_REDIS_URL -> пусто
func (c *CacheConfig) GetRedisURL() string {
	if c.RedisURL != "" {
		return c.RedisURL
	}
	return os.Getenv("NAV_REDIS_URL")
}

// AuthConfig защищает изменяющие эндпоинты JWT токеном администратора.
// Пароль и секрет лучше передавать через ENV.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
	JWTSecret     string `yaml:"jwt_secret"` // base64, не короче 32 байт
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// GetAdminPassword возвращает пароль администратора: config -> env NAV_ADMIN_PASSWORD
func (a *AuthConfig) GetAdminPassword() string {
	if a.AdminPassword != "" {
		return a.AdminPassword
	}
	return os.Getenv("NAV_ADMIN_PASSWORD")
}

// GetJWTSecret возвращает секрет JWT: config -> env NAV_JWT_SECRET
func (a *AuthConfig) GetJWTSecret() string {
	if a.JWTSecret != "" {
		return a.JWTSecret
	}
	return os.Getenv("NAV_JWT_SECRET")
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Pathfinding: PathfindingConfig{
			FixedUnitCrossingCost:  256,
			MovingUnitCrossingCost: 64,
			AssumeUnseenKnown:      false,
			UnknownTerrainCost:     16,
			AllowCornerCutting:     false,
			MaxSearchLength:        4096,
			MaxExpansions:          65536,
		},
		Movement: MovementConfig{
			MaxWaitCycles: 8,
		},
		Storage: StorageConfig{
			Path:        "data",
			Compression: true,
		},
		Server: ServerConfig{
			RESTPort:  8090,
			MapSeed:   1,
			MapWidth:  128,
			MapHeight: 128,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Events: EventsConfig{
			Stream:     "NAV_EVENTS",
			Retention:  24,
			BufferSize: 1024,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "navserver",
		},
		Auth: AuthConfig{
			Enabled:       false,
			AdminUser:     "admin",
			TokenTTLHours: 24,
		},
		Cache: CacheConfig{
			KeyPrefix:  "nav:",
			TTLSeconds: 300,
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "NAV_REST_PORT", 8090)
}

// GetNATSURL возвращает адрес NATS: config -> env NAV_NATS_URL -> пусто (in-memory шина)
func (e *EventsConfig) GetNATSURL() string {
	if e.NATSURL != "" {
		return e.NATSURL
	}
	return os.Getenv("NAV_NATS_URL")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет значения, без которых поиск не имеет смысла.
func (c *Config) Validate() error {
	p := c.Pathfinding
	if p.FixedUnitCrossingCost < 0 || p.MovingUnitCrossingCost < 0 {
		return fmt.Errorf("стоимость прохода через юнитов не может быть отрицательной")
	}
	if p.UnknownTerrainCost < 0 {
		return fmt.Errorf("unknown_terrain_cost не может быть отрицательным: %d", p.UnknownTerrainCost)
	}
	if p.MaxSearchLength <= 0 {
		return fmt.Errorf("max_search_length должен быть положительным: %d", p.MaxSearchLength)
	}
	if p.MaxExpansions < 0 {
		return fmt.Errorf("max_expansions не может быть отрицательным: %d", p.MaxExpansions)
	}
	if c.Movement.MaxWaitCycles < 0 {
		return fmt.Errorf("max_wait_cycles не может быть отрицательным: %d", c.Movement.MaxWaitCycles)
	}
	if c.Server.MapWidth <= 0 || c.Server.MapHeight <= 0 {
		return fmt.Errorf("некорректный размер карты %dx%d", c.Server.MapWidth, c.Server.MapHeight)
	}
	if c.Events.BufferSize <= 0 {
		return fmt.Errorf("events.buffer_size должен быть положительным: %d", c.Events.BufferSize)
	}
	if c.Auth.Enabled && c.Auth.GetAdminPassword() == "" {
		return fmt.Errorf("auth.enabled требует пароль администратора (admin_password или NAV_ADMIN_PASSWORD)")
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds не может быть отрицательным: %d", c.Cache.TTLSeconds)
	}
	if c.Server.TickMillis < 0 {
		return fmt.Errorf("tick_ms не может быть отрицательным: %d", c.Server.TickMillis)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV NAV_CONFIG; без него возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("NAV_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
