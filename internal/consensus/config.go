package consensus

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultThreshold is the minimum number of distinct strategies for a notable entry
const DefaultThreshold = 2

// Source is one strategy stage output consumed by the merge
type Source struct {
	Table string `yaml:"table" json:"table"`
	Label string `yaml:"label" json:"label"`
}

// ScoreConfig toggles the external score enrichment
type ScoreConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Config is the merge configuration (configs/strategies.yaml)
// Source order is the fetch order and defines the label order of every entry
type Config struct {
	Threshold int         `yaml:"threshold" json:"threshold"`
	Score     ScoreConfig `yaml:"score" json:"score"`
	Sources   []Source    `yaml:"sources" json:"sources"`
}

// DefaultConfig returns the built-in seven strategy sources
func DefaultConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Score:     ScoreConfig{Enabled: true},
		Sources: []Source{
			{Table: "cn_stock_strategy_enter", Label: "放量上涨"},
			{Table: "cn_stock_strategy_keep_increasing", Label: "均线多头"},
			{Table: "cn_stock_strategy_parking_apron", Label: "停机坪"},
			{Table: "cn_stock_strategy_backtrace_ma250", Label: "回踩年线"},
			{Table: "cn_stock_strategy_breakthrough_platform", Label: "突破平台"},
			{Table: "cn_stock_strategy_turtle_trade", Label: "海龟交易"},
			{Table: "cn_stock_strategy_high_tight_flag", Label: "高而窄的旗形"},
		},
	}
}

// LoadConfig reads the YAML file, or returns DefaultConfig when path is empty
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes and validates YAML config bytes
func ParseConfig(data []byte) (*Config, error) {
	cfg := Config{Threshold: DefaultThreshold}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode strategy config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Threshold < 1 {
		return ValidationError{"threshold", "must be >= 1"}
	}
	if len(cfg.Sources) == 0 {
		return ValidationError{"sources", "at least one source required"}
	}

	tables := make(map[string]bool, len(cfg.Sources))
	labels := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if !tableNamePattern.MatchString(s.Table) {
			return ValidationError{field + ".table", fmt.Sprintf("invalid table name %q", s.Table)}
		}
		if s.Label == "" {
			return ValidationError{field + ".label", "required"}
		}
		if tables[s.Table] {
			return ValidationError{field + ".table", "duplicate " + s.Table}
		}
		if labels[s.Label] {
			return ValidationError{field + ".label", "duplicate " + s.Label}
		}
		tables[s.Table] = true
		labels[s.Label] = true
	}

	return nil
}

// Tables returns the source table names in fetch order
func (c *Config) Tables() []string {
	tables := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		tables[i] = s.Table
	}
	return tables
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 동일 설정 → 동일 해시, 실행 로그로 설정 변경 추적
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
