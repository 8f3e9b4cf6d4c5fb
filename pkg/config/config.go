package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGoogle     = "google"
	ProviderOpenRouter = "openrouter"
)

const (
	AuthModeNone   = "none"
	AuthModeStatic = "static"
	AuthModeJWT    = "jwt"
)

type Config struct {
	Host                     string  `yaml:"host"`
	Port                     int     `yaml:"port"`
	Env                      string  `yaml:"env"`
	LogLevel                 string  `yaml:"logLevel"`
	LogFormat                string  `yaml:"logFormat"`
	LLMProvider              string  `yaml:"llmProvider"`
	GoogleAPIKey             string  `yaml:"googleApiKey"`
	GeminiModel              string  `yaml:"geminiModel"`
	OpenRouterAPIKey         string  `yaml:"openrouterApiKey"`
	OpenRouterModel          string  `yaml:"openrouterModel"`
	OpenRouterBaseURL        string  `yaml:"openrouterBaseUrl"`
	TranscriptLanguage       string  `yaml:"transcriptLanguage"`
	TranscriptBaseURL        string  `yaml:"transcriptBaseUrl"`
	TranscriptCacheSeconds   int     `yaml:"transcriptCacheSeconds"`
	TranscriptTimeoutSeconds int     `yaml:"transcriptTimeoutSeconds"`
	NotifierTimeoutSeconds   int     `yaml:"notifierTimeoutSeconds"`
	AuthMode                 string  `yaml:"authMode"`
	AuthToken                string  `yaml:"authToken"`
	AuthJWTSecret            string  `yaml:"authJwtSecret"`
	AuthJWTIssuer            string  `yaml:"authJwtIssuer"`
	TracingEnabled           bool    `yaml:"tracingEnabled"`
	OTLPEndpoint             string  `yaml:"otlpEndpoint"`
	OTLPInsecure             bool    `yaml:"otlpInsecure"`
	TraceSampleRatio         float64 `yaml:"traceSampleRatio"`
	AgentPublicURL           string  `yaml:"agentPublicUrl"`
}

// LoadConfigOptional reads the YAML file when it exists, overlays environment
// variables and fills defaults. An empty or missing file is not an error; the
// agent can run from environment variables alone.
func LoadConfigOptional(filePath string) (*Config, error) {
	var c Config
	if path := strings.TrimSpace(filePath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &c); err != nil {
				return nil, err
			}
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("TLDW_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLMProvider = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.GoogleAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.GeminiModel = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.OpenRouterAPIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.OpenRouterModel = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.OpenRouterBaseURL = v
	}
	if v := os.Getenv("TRANSCRIPT_LANG"); v != "" {
		c.TranscriptLanguage = v
	}
	if v := os.Getenv("TRANSCRIPT_BASE_URL"); v != "" {
		c.TranscriptBaseURL = v
	}
	if v := os.Getenv("TRANSCRIPT_CACHE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TranscriptCacheSeconds = n
		}
	}
	if v := os.Getenv("TRANSCRIPT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TranscriptTimeoutSeconds = n
		}
	}
	if v := os.Getenv("NOTIFIER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.NotifierTimeoutSeconds = n
		}
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		c.AuthMode = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		c.AuthJWTSecret = v
	}
	if v := os.Getenv("AUTH_JWT_ISSUER"); v != "" {
		c.AuthJWTIssuer = v
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TracingEnabled = b
		}
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.OTLPInsecure = b
		}
	}
	if v := os.Getenv("TRACE_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TraceSampleRatio = f
		}
	}
	if v := os.Getenv("AGENT_PUBLIC_URL"); v != "" {
		c.AgentPublicURL = v
	}

	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.LLMProvider == "" {
		c.LLMProvider = ProviderGoogle
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-1.5-pro-latest"
	}
	if c.OpenRouterModel == "" {
		c.OpenRouterModel = "openai/gpt-oss-20b:free"
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.TranscriptLanguage == "" {
		c.TranscriptLanguage = "en"
	}
	if c.TranscriptBaseURL == "" {
		c.TranscriptBaseURL = "https://www.youtube.com"
	}
	if c.TranscriptCacheSeconds <= 0 {
		c.TranscriptCacheSeconds = 900
	}
	if c.TranscriptTimeoutSeconds <= 0 {
		c.TranscriptTimeoutSeconds = 20
	}
	if c.NotifierTimeoutSeconds <= 0 {
		c.NotifierTimeoutSeconds = 10
	}
	if c.AuthMode == "" {
		c.AuthMode = AuthModeNone
	}
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = "localhost:4317"
	}
	if c.TraceSampleRatio == 0 {
		c.TraceSampleRatio = 1.0
	}
	if c.AgentPublicURL == "" {
		c.AgentPublicURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}

	log.Printf("Agent Config: {Port:%d Provider:%s Lang:%s Auth:%s Tracing:%t}\n",
		c.Port, c.LLMProvider, c.TranscriptLanguage, c.AuthMode, c.TracingEnabled)
	return &c, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	switch c.LLMProvider {
	case ProviderGoogle:
		if strings.TrimSpace(c.GoogleAPIKey) == "" {
			errs = append(errs, "GOOGLE_API_KEY is required for the 'google' provider.")
		}
	case ProviderOpenRouter:
		if strings.TrimSpace(c.OpenRouterAPIKey) == "" {
			errs = append(errs, "OPENROUTER_API_KEY is required for the 'openrouter' provider.")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown LLM_PROVIDER: '%s'. Must be 'google' or 'openrouter'.", c.LLMProvider))
	}

	switch c.AuthMode {
	case AuthModeNone:
	case AuthModeStatic:
		if strings.TrimSpace(c.AuthToken) == "" {
			errs = append(errs, "authToken is required when authMode is 'static'")
		}
	case AuthModeJWT:
		if strings.TrimSpace(c.AuthJWTSecret) == "" {
			errs = append(errs, "authJwtSecret is required when authMode is 'jwt'")
		}
	default:
		errs = append(errs, fmt.Sprintf("authMode must be one of 'none', 'static', 'jwt'; got '%s'", c.AuthMode))
	}

	for name, raw := range map[string]string{
		"openrouterBaseUrl": c.OpenRouterBaseURL,
		"transcriptBaseUrl": c.TranscriptBaseURL,
		"agentPublicUrl":    c.AgentPublicURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s must be a valid http(s) URL", name))
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, "logFormat must be 'json' or 'text'")
	}

	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, "traceSampleRatio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
