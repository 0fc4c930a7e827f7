package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Database   Database
	Billing    Billing
	Completion Completion
	Voice      Voice
	Auth       Auth
}

type Server struct {
	Port string
	Mode string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Billing controls how attempts are charged against student credit balances.
// Mode is either "upfront" (debit the case cost when the attempt is created)
// or "metered" (only require a non-zero balance; charging happens out-of-band).
type Billing struct {
	Mode string
}

// Completion selects and configures the LLM backend used for assessment
// generation. Provider is one of "openai", "anthropic", "gemini".
type Completion struct {
	Provider        string
	OpenAIApiKey    string
	AnthropicApiKey string
	GeminiApiKey    string
	Model           string
}

// Voice points at the realtime voice session orchestrator.
type Voice struct {
	BaseURL string
	ApiKey  string
}

type Auth struct {
	JWTSecret string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("BILLING_MODE", "upfront")
	viper.SetDefault("COMPLETION_PROVIDER", "openai")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.Mode = viper.GetString("SERVER_MODE")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Billing.Mode = viper.GetString("BILLING_MODE")

	config.Completion.Provider = viper.GetString("COMPLETION_PROVIDER")
	config.Completion.OpenAIApiKey = viper.GetString("OPENAI_API_KEY")
	config.Completion.AnthropicApiKey = viper.GetString("ANTHROPIC_API_KEY")
	config.Completion.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Completion.Model = viper.GetString("COMPLETION_MODEL")

	config.Voice.BaseURL = viper.GetString("VOICE_ORCHESTRATOR_URL")
	config.Voice.ApiKey = viper.GetString("VOICE_ORCHESTRATOR_API_KEY")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")

	log.Info().
		Str("billingMode", config.Billing.Mode).
		Str("completionProvider", config.Completion.Provider).
		Msg("Config loaded")
	return &config, nil
}
