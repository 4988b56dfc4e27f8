package domain

type STTProvider string

const (
	STTProviderOpenAI STTProvider = "openai"
	STTProviderGroq   STTProvider = "groq"
)

type GenerationProvider string

const (
	GenerationProviderGemini    GenerationProvider = "gemini"
	GenerationProviderAnthropic GenerationProvider = "anthropic"
)

type TTSProvider string

const (
	TTSProviderGemini TTSProvider = "gemini"
	TTSProviderOpenAI TTSProvider = "openai"
	// TTSProviderGoogle is the browser speech engine; it has no headless API.
	TTSProviderGoogle TTSProvider = "google"
)
