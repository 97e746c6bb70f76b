package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"checkout.db"`

	Auth         Auth      `envPrefix:"AUTH_"`
	Checkout     Checkout  `envPrefix:"CHECKOUT_"`
	Geo          Geo       `envPrefix:"GEO_"`
	Chronopost   Carrier   `envPrefix:"CHRONOPOST_"`
	MondialRelay Carrier   `envPrefix:"MONDIAL_RELAY_"`
	Payment      Payment   `envPrefix:"PAYMENT_"`
	BrainTree    Braintree `envPrefix:"BRAINTREE_"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Checkout tunes the customer wizard. Debounce delays are measured from the
// last form change before a lookup is dispatched.
type Checkout struct {
	CityDebounce  time.Duration `env:"CITY_DEBOUNCE" envDefault:"300ms"`
	RelayDebounce time.Duration `env:"RELAY_DEBOUNCE" envDefault:"500ms"`
	LookupTimeout time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"30m"`
}

type Geo struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://geo.api.gouv.fr"`
	RateLimit float64       `env:"RATE_LIMIT" envDefault:"10"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Carrier holds settings of a mocked carrier web service.
type Carrier struct {
	Latency time.Duration `env:"LATENCY" envDefault:"600ms"`
}

type Payment struct {
	Provider        string        `env:"PROVIDER" envDefault:"simulated"`
	SettlementDelay time.Duration `env:"SETTLEMENT_DELAY" envDefault:"1s"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
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
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
