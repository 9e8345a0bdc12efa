package domain

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return "Unknown"
	}
}

// EmbeddingSettings holds the query encoder configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `mapstructure:"provider" toml:"provider"`

	// Model is the embedding model name.
	Model string `mapstructure:"model" toml:"model"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `mapstructure:"base_url" toml:"base_url"`

	// APIKey is the API key (for OpenAI).
	APIKey string `mapstructure:"api_key" toml:"api_key"`

	// Dimensions overrides the vector size. Zero uses the model default.
	Dimensions int `mapstructure:"dimensions" toml:"dimensions"`

	// TimeoutSeconds bounds each encoder request. Zero uses the provider default.
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`

	// RequestsPerSecond throttles encoder calls. Zero disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second"`

	// Burst is the number of calls allowed above the steady rate.
	Burst int `mapstructure:"burst" toml:"burst"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns Dimensions, or the known size of Model.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
