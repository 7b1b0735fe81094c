package common

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Config is read from the process environment, after .env has been merged in.
type Config struct {
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBAddress  string `mapstructure:"DB_ADDRESS"`
	DBName     string `mapstructure:"DB_NAME"`

	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	ServerPort int `mapstructure:"SERVER_PORT"`
	MaxBlocks  int `mapstructure:"MAX_BLOCKS"`
}

func DefaultConfig() Config {
	return Config{
		AMQPExchange: "bench_results",
		LogLevel:     "info",
		LogFormat:    "console",
		ServerPort:   8080,
		MaxBlocks:    4096,
	}
}

// HasDB reports whether enough is configured to reach MySQL.
func (c Config) HasDB() bool {
	return c.DBAddress != "" && c.DBName != ""
}

func (c Config) HasAMQP() bool {
	return c.AMQPURL != ""
}

// LoadEnv merges the given dotenv files (".env" when none are given) into the
// process environment. Missing files are not an error.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "loading dotenv %s", name)
		}
	}

	return nil
}

// ParseConfig decodes env on top of DefaultConfig. Values are strings, so the
// decoder is weakly typed.
func ParseConfig(env map[string]string) (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, errors.Wrap(err, "creating config decoder")
	}

	if err = decoder.Decode(env); err != nil {
		return cfg, errors.Wrap(err, "decoding config")
	}

	return cfg, nil
}

// LoadConfig loads the dotenv files and parses the resulting environment.
func LoadConfig(filenames ...string) (Config, error) {
	if err := LoadEnv(filenames...); err != nil {
		return Config{}, err
	}

	return ParseConfig(environ())
}

func environ() map[string]string {
	env := map[string]string{}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}
