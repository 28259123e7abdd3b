package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FORUM_"

type Config struct {
	DBDriver string `yaml:"db_driver"`
	DBPath   string `yaml:"db_path"`
	// DBDSN используется для postgres, для sqlite3 берется DBPath
	DBDSN string `yaml:"db_dsn"`
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
}

func Default() Config {
	return Config{
		DBDriver: "sqlite3",
		DBPath:   "forum.db",
		Host:     "127.0.0.1",
		Port:     3000,
	}
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
}

// Load собирает конфиг: значения по умолчанию, затем YAML файл (если path
// не пустой), затем переменные окружения FORUM_*.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(envPrefix + "DB_DRIVER"); ok {
		c.DBDriver = v
	}
	if v, ok := os.LookupEnv(envPrefix + "DB_PATH"); ok {
		c.DBPath = v
	}
	if v, ok := os.LookupEnv(envPrefix + "DB_DSN"); ok {
		c.DBDSN = v
	}
	if v, ok := os.LookupEnv(envPrefix + "HOST"); ok {
		c.Host = v
	}
	if v, ok := os.LookupEnv(envPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", envPrefix, v, err)
		}
		c.Port = port
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3":
		if c.DBPath == "" {
			return errors.New("db_path is required for sqlite3")
		}
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("db_dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown db_driver %q", c.DBDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// DataSource возвращает строку подключения для выбранного драйвера
func (c Config) DataSource() string {
	if c.DBDriver == "postgres" {
		return c.DBDSN
	}
	return c.DBPath
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
