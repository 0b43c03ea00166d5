package config

// ServerConfig contains the operational HTTP surface (metrics only).
type ServerConfig struct {
	MetricsPort int `yaml:"metricsPort" validate:"gte=0"`
}

// TripAPIConfig tunes the trip-detail backend client: endpoint, per-attempt
// timeout, retry budget and circuit breaker thresholds.
type TripAPIConfig struct {
	BaseURL          string `yaml:"baseURL" validate:"omitempty,url"`
	TimeoutMS        int    `yaml:"timeoutMS" validate:"gte=0"`
	MaxAttempts      int    `yaml:"maxAttempts" validate:"gte=0"`
	BaseDelayMS      int    `yaml:"baseDelayMS" validate:"gte=0"`
	MaxDelayMS       int    `yaml:"maxDelayMS" validate:"gte=0"`
	FailureThreshold int    `yaml:"failureThreshold" validate:"gte=0"`
	ResetTimeoutMS   int    `yaml:"resetTimeoutMS" validate:"gte=0"`
}

// CacheConfig bounds the trip-detail cache.
type CacheConfig struct {
	TTLMS   int `yaml:"ttlMS" validate:"gte=0"`
	MaxSize int `yaml:"maxSize" validate:"gte=0"`
}

// OffsetsConfig assigns each line id a lateral slot index for parallel-line
// separation (negative = one side, positive = the other, 0 = center).
type OffsetsConfig struct {
	Groups map[string]int `yaml:"groups"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	TripAPI TripAPIConfig `yaml:"tripAPI"`
	Cache   CacheConfig   `yaml:"cache"`
	Offsets OffsetsConfig `yaml:"offsets"`
}
