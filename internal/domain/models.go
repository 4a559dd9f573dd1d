package domain

// Config is the process configuration loaded from file, with secrets layered
// in from the environment by the config package.
type Config struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Infra     InfraConfig     `json:"infra" yaml:"infra"`
	Upstream  UpstreamConfig  `json:"upstream" yaml:"upstream"`
	Directory DirectoryConfig `json:"directory" yaml:"directory"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`
	Files     FilesConfig     `json:"files" yaml:"files"`
	Shortener ShortenerConfig `json:"shortener" yaml:"shortener"`
	OpenAI    OpenAIConfig    `json:"openai" yaml:"openai"`
}

// HTTPConfig configures the REST transport.
type HTTPConfig struct {
	Port int `json:"port" yaml:"port"`

	// AuthToken, when set, makes the server require Authorization: Bearer
	// <token>. Empty delegates authentication to the fronting gateway.
	AuthToken string `json:"authToken,omitempty" yaml:"authToken,omitempty"`
}

// InfraConfig controls logging.
type InfraConfig struct {
	LogFormat string `json:"logFormat" yaml:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel" yaml:"logLevel"`
}

// UpstreamConfig controls the shared HTTP client used by leaf adapters.
type UpstreamConfig struct {
	MaxRetries     int `json:"maxRetries" yaml:"maxRetries"`
	TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`

	// MaxConcurrentFetches bounds parallel page fetches in the web adapter.
	MaxConcurrentFetches int `json:"maxConcurrentFetches" yaml:"maxConcurrentFetches"`
}

// DirectoryConfig controls the Slack directory cache.
type DirectoryConfig struct {
	// RefreshSchedule is a cron spec (e.g. "@every 6h"). Empty disables the
	// background refresh; the update tools still refresh on demand.
	RefreshSchedule string `json:"refreshSchedule" yaml:"refreshSchedule"`
}

// ArchiveConfig locates the local message/shortlink store.
type ArchiveConfig struct {
	Path string `json:"path" yaml:"path"`
}

// FilesConfig locates the uploads folder listed by list_files.
type FilesConfig struct {
	Root string `json:"root" yaml:"root"`
}

// ShortenerConfig configures shortened-URL rendering.
type ShortenerConfig struct {
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
}

// OpenAIConfig selects models for the OpenAI-backed tools.
type OpenAIConfig struct {
	EmbeddingModel string `json:"embeddingModel" yaml:"embeddingModel"`
	ReasoningModel string `json:"reasoningModel" yaml:"reasoningModel"`
}
