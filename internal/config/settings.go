package config

import (
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Recognized runtime setting keys. These live in the store's settings
// table so operators can flip them without a redeploy.
const (
	KeyCRMEnabled        = "crm_enabled"
	KeyCRMProvider       = "crm_provider"
	KeyAutoProcess       = "auto_process_feedback"
	KeyNegativeThreshold = "negative_threshold"
	KeyPositiveThreshold = "positive_threshold"
	KeyMaxProcessingTime = "max_processing_time"
	KeyBatchSize         = "batch_size"
)

// SettingKeys lists every recognized runtime setting key.
var SettingKeys = []string{
	KeyCRMEnabled,
	KeyCRMProvider,
	KeyAutoProcess,
	KeyNegativeThreshold,
	KeyPositiveThreshold,
	KeyMaxProcessingTime,
	KeyBatchSize,
}

// IsSettingKey reports whether key is a recognized runtime setting.
func IsSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Settings is the typed view of the runtime settings table. Raw strings
// are parsed here once; nothing downstream compares "true"/"false".
type Settings struct {
	CRMEnabled        bool
	CRMProvider       string // "salesforce", "hubspot", or empty
	AutoProcess       bool
	NegativeThreshold float64 // alerting threshold, not the label threshold
	PositiveThreshold float64
	MaxProcessingTime time.Duration
	BatchSize         int
}

// DefaultSettings returns the documented defaults for every recognized key.
func DefaultSettings() Settings {
	return Settings{
		CRMEnabled:        false,
		CRMProvider:       "",
		AutoProcess:       false,
		NegativeThreshold: 0.3,
		PositiveThreshold: 0.7,
		MaxProcessingTime: 300 * time.Second,
		BatchSize:         10,
	}
}

// ParseSettings builds a typed Settings from the raw key→value map,
// applying defaults for missing keys and logging (not failing) on
// malformed values.
func ParseSettings(raw map[string]string) Settings {
	s := DefaultSettings()

	if v, ok := raw[KeyCRMEnabled]; ok {
		s.CRMEnabled = parseBool(KeyCRMEnabled, v, s.CRMEnabled)
	}
	if v, ok := raw[KeyCRMProvider]; ok {
		s.CRMProvider = v
	}
	if v, ok := raw[KeyAutoProcess]; ok {
		s.AutoProcess = parseBool(KeyAutoProcess, v, s.AutoProcess)
	}
	if v, ok := raw[KeyNegativeThreshold]; ok {
		s.NegativeThreshold = parseFloat(KeyNegativeThreshold, v, s.NegativeThreshold)
	}
	if v, ok := raw[KeyPositiveThreshold]; ok {
		s.PositiveThreshold = parseFloat(KeyPositiveThreshold, v, s.PositiveThreshold)
	}
	if v, ok := raw[KeyMaxProcessingTime]; ok {
		secs := parseInt(KeyMaxProcessingTime, v, int(s.MaxProcessingTime/time.Second))
		s.MaxProcessingTime = time.Duration(secs) * time.Second
	}
	if v, ok := raw[KeyBatchSize]; ok {
		s.BatchSize = parseInt(KeyBatchSize, v, s.BatchSize)
	}

	return s
}

// Raw renders the settings back to the string form the settings table stores.
func (s Settings) Raw() map[string]string {
	return map[string]string{
		KeyCRMEnabled:        strconv.FormatBool(s.CRMEnabled),
		KeyCRMProvider:       s.CRMProvider,
		KeyAutoProcess:       strconv.FormatBool(s.AutoProcess),
		KeyNegativeThreshold: strconv.FormatFloat(s.NegativeThreshold, 'f', -1, 64),
		KeyPositiveThreshold: strconv.FormatFloat(s.PositiveThreshold, 'f', -1, 64),
		KeyMaxProcessingTime: strconv.Itoa(int(s.MaxProcessingTime / time.Second)),
		KeyBatchSize:         strconv.Itoa(s.BatchSize),
	}
}

func parseBool(key, v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		zap.L().Warn("config: malformed setting, using default",
			zap.String("key", key), zap.String("value", v))
		return def
	}
	return b
}

func parseFloat(key, v string, def float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		zap.L().Warn("config: malformed setting, using default",
			zap.String("key", key), zap.String("value", v))
		return def
	}
	return f
}

func parseInt(key, v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.L().Warn("config: malformed setting, using default",
			zap.String("key", key), zap.String("value", v))
		return def
	}
	return n
}
