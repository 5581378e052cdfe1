package ratelimit

import "time"

// Window defines one counting layer: at most MaxRequests hits per Interval.
type Window struct {
	Interval    time.Duration
	MaxRequests int
}

// Config is a named rate-limit policy. A policy may layer several windows,
// typically a fast burst cap over a slower sustained cap; a request is
// allowed only when every layer is within budget.
type Config struct {
	Name    string
	Windows []Window
}

// Well-known policy names. Handlers pick one explicitly; there is no
// reflection or annotation-driven dispatch.
const (
	ConfigAuth          = "auth"
	ConfigPasswordReset = "passwordReset"
	ConfigAIGeneration  = "aiGeneration"
	ConfigAIChat        = "aiChat"
	ConfigGeneral       = "general"
	ConfigUpload        = "upload"
)

// DefaultConfigs returns the process-wide policy table. It is loaded once
// at startup and read-only afterwards.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		ConfigAuth: {
			Name: ConfigAuth,
			Windows: []Window{
				{Interval: time.Second, MaxRequests: 3},
				{Interval: time.Minute, MaxRequests: 10},
			},
		},
		ConfigPasswordReset: {
			Name: ConfigPasswordReset,
			Windows: []Window{
				{Interval: time.Hour, MaxRequests: 3},
			},
		},
		ConfigAIGeneration: {
			Name: ConfigAIGeneration,
			Windows: []Window{
				{Interval: time.Minute, MaxRequests: 10},
			},
		},
		ConfigAIChat: {
			Name: ConfigAIChat,
			Windows: []Window{
				{Interval: time.Minute, MaxRequests: 30},
			},
		},
		ConfigGeneral: {
			Name: ConfigGeneral,
			Windows: []Window{
				{Interval: time.Minute, MaxRequests: 100},
			},
		},
		ConfigUpload: {
			Name: ConfigUpload,
			Windows: []Window{
				{Interval: time.Minute, MaxRequests: 20},
			},
		},
	}
}
