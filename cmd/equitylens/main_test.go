package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/seenimoa/equitylens/internal/config"
)

func TestBatchProviderHasNoBreaker(t *testing.T) {
	prevCfg, prevLogger := cfg, logger
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })

	cfg = &config.Config{Provider: config.ProviderConfig{
		BaseURL:            "http://127.0.0.1:0",
		BreakerMaxFailures: 5,
		BreakerCooldownSec: 30,
	}}
	logger = zerolog.Nop()

	if got := newYahoo().BreakerState(); got != "closed" {
		t.Errorf("interactive provider breaker: got %q, want closed", got)
	}
	if got := newBatchYahoo().BreakerState(); got != "disabled" {
		t.Errorf("batch provider breaker: got %q, want disabled", got)
	}
}
