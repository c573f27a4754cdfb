// internal/config/config.go
package config

// Config is the gateway configuration file.
// Pointer fields distinguish "absent" from an explicit zero; Normalize fills
// the defaults.
type Config struct {
	Transport   string            `yaml:"transport"`
	TCP         TCPConfig         `yaml:"tcp"`
	Serial      SerialConfig      `yaml:"serial"`
	Reconnect   ReconnectConfig   `yaml:"reconnect"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	HTTP        HTTPConfig        `yaml:"http"`
	Items       []ItemConfig      `yaml:"items"`
}

// ---- TRANSPORT ----

const (
	TransportTCP   = "tcp"
	TransportRTU   = "rtu"
	TransportASCII = "ascii"
	TransportStub  = "stub"
)

type TCPConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	IdleTimeoutMs int    `yaml:"idle_timeout_ms"`
}

type SerialConfig struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"` // N, E, O
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- RECONNECT ----

type ReconnectConfig struct {
	Retries           *int     `yaml:"retries"`
	IntervalMs        int      `yaml:"interval_ms"`
	BackoffMultiplier *float64 `yaml:"backoff_multiplier"`
	MaxIntervalMs     int      `yaml:"max_interval_ms"`
}

// ---- AMBIENT ----

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DiagnosticsConfig struct {
	MaxExceptions int `yaml:"max_exceptions"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// ---- ITEM ----

type ItemConfig struct {
	Name      string   `yaml:"name"`
	UnitID    *int     `yaml:"unit_id"`
	Function  *int     `yaml:"function"`
	Address   int      `yaml:"address"`
	Count     *int     `yaml:"count"`
	Type      string   `yaml:"type"`
	Scale     *float64 `yaml:"scale"`
	Offset    float64  `yaml:"offset"`
	SwapWords bool     `yaml:"swap_words"`
	WordOrder string   `yaml:"word_order"`
	PollMs    int      `yaml:"poll_ms"`
}
