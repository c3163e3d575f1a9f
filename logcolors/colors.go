package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
)

// Coordinator and cache log prefixes
const (
	LogCoordinator   = Green + "[Coordinator]" + Reset
	LogCacheLyrics   = Green + "[Cache:Lyrics]" + Reset
	LogCacheNegative = Cyan + "[Cache:Negative]" + Reset
	LogCacheClear    = Blue + "[Cache:Clear]" + Reset
	LogInFlight      = Cyan + "[InFlight]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Provider log prefixes
const (
	LogRequest  = Purple + "[Request]" + Reset
	LogGet      = Blue + "[Get]" + Reset
	LogSearch   = Blue + "[Search]" + Reset
	LogHTTP     = Cyan + "[HTTP]" + Reset
	LogMatch    = Green + "[Match]" + Reset
	LogSuccess  = Green + "[Success]" + Reset
	LogNative   = Cyan + "[Native]" + Reset
	LogFallback = Cyan + "[Fallback]" + Reset
	LogWarning  = Red + "[Warning]" + Reset
)
