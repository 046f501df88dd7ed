package cache

import (
	"errors"
	"testing"
	"time"
)

func TestPolicy_EffectiveTTL(t *testing.T) {
	p := Policy{DefaultTTL: 30 * time.Minute, MaxTTL: 24 * time.Hour}

	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{"explicit ttl", 10 * time.Minute, 10 * time.Minute},
		{"zero uses default", 0, 30 * time.Minute},
		{"negative uses default", -time.Hour, 30 * time.Minute},
		{"at max", 24 * time.Hour, 24 * time.Hour},
		{"above max clamped", 72 * time.Hour, 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.EffectiveTTL(tt.requested); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func TestPolicy_EffectiveTTL_NoMax(t *testing.T) {
	p := Policy{DefaultTTL: time.Hour}

	if got := p.EffectiveTTL(365 * 24 * time.Hour); got != 365*24*time.Hour {
		t.Errorf("EffectiveTTL with no max = %v, want %v", got, 365*24*time.Hour)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr error
	}{
		{"valid", Policy{DefaultTTL: time.Minute}, nil},
		{"valid with max", Policy{DefaultTTL: time.Minute, MaxTTL: time.Hour}, nil},
		{"zero default", Policy{}, ErrNoDefaultTTL},
		{"negative default", Policy{DefaultTTL: -time.Second}, ErrNoDefaultTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTierPolicies(t *testing.T) {
	if p := ServerPolicy(); p.DefaultTTL != 24*time.Hour {
		t.Errorf("ServerPolicy DefaultTTL = %v, want 24h", p.DefaultTTL)
	}
	if p := ClientPolicy(); p.DefaultTTL != 30*time.Minute {
		t.Errorf("ClientPolicy DefaultTTL = %v, want 30m", p.DefaultTTL)
	}
	if ServerSweepInterval != time.Hour {
		t.Errorf("ServerSweepInterval = %v, want 1h", ServerSweepInterval)
	}
	if ClientSweepInterval != 10*time.Minute {
		t.Errorf("ClientSweepInterval = %v, want 10m", ClientSweepInterval)
	}
}

func TestClass_TTL(t *testing.T) {
	tests := []struct {
		class Class
		want  time.Duration
	}{
		{ClassOperational, 30 * time.Minute},
		{ClassReference, 7 * 24 * time.Hour},
		{ClassHistorical, 30 * 24 * time.Hour},
		{Class("unknown"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := tt.class.TTL(); got != tt.want {
				t.Errorf("TTL() = %v, want %v", got, tt.want)
			}
		})
	}
}
