package config

type App struct {
	Port          string `env:"APP_PORT" default:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	JWTSecret     string `env:"JWT_SECRET,required"`
	AdminAPIKey   string `env:"ADMIN_API_KEY,required"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	ImportCSVPath string `env:"IMPORT_CSV_PATH"`
	LogsPath      string `env:"LOGS_PATH" default:"./logs"`
	Env           string `env:"APP_ENV" default:"dev"`
}
