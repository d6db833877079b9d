package config

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	Paypal   Paypal   `envPrefix:"PAYPAL_"`
	Database Database `envPrefix:"DB_"`
}

type Paypal struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Mode         string `env:"MODE" envDefault:"sandbox"`
}

// BaseAPIURL resolves the processor endpoint from the mode flag.
// Anything other than "live" selects sandbox.
func (p Paypal) BaseAPIURL() string {
	if p.Mode == "live" {
		return liveBaseURL
	}
	return sandboxBaseURL
}

type Database struct {
	Host     string `env:"HOST" envDefault:"127.0.0.1:3306"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
}

func (d Database) DSN() string {
	return d.User + ":" + d.Password + "@tcp(" + d.Host + ")/" + d.Name + "?charset=utf8mb4&parseTime=True&loc=Local"
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"10000"`
}
