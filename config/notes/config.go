package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port            int    `env:"NOTES_PORT" env-default:"8080"`
	CachePath       string `env:"CACHE_PATH" env-default:"data/notes_cache.json"`
	ProviderTimeout int    `env:"PROVIDER_TIMEOUT" env-default:"15"`

	Gladia ProviderConfig `env-prefix:"GLADIA_"`
	Gemini ProviderConfig `env-prefix:"GEMINI_"`
	Mongo  MongoConfig    `env-prefix:"MONGO_"`
}

type ProviderConfig struct {
	APIKey string `env:"API_KEY"`
	URL    string `env:"URL"`
}

type MongoConfig struct {
	URI      string `env:"URI"`
	Database string `env:"DB" env-default:"voxnote"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}
	return &cfg
}
