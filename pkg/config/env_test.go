package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	os.Setenv("PHARMASTOCK_TEST_KEY", "value")
	defer os.Unsetenv("PHARMASTOCK_TEST_KEY")

	if got := GetEnv("PHARMASTOCK_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("GetEnv() = %q, want %q", got, "value")
	}
	if got := GetEnv("PHARMASTOCK_MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("GetEnv() = %q, want %q", got, "fallback")
	}
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "defaults to development", value: "", want: EnvDevelopment},
		{name: "lowercases the value", value: "PRODUCTION", want: EnvProduction},
		{name: "staging", value: "staging", want: EnvStaging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				os.Unsetenv("PHARMASTOCK_SERVER_ENVIRONMENT")
			} else {
				os.Setenv("PHARMASTOCK_SERVER_ENVIRONMENT", tt.value)
				defer os.Unsetenv("PHARMASTOCK_SERVER_ENVIRONMENT")
			}

			if got := GetEnvironment(); got != tt.want {
				t.Errorf("GetEnvironment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsProductionLike(t *testing.T) {
	os.Setenv("PHARMASTOCK_SERVER_ENVIRONMENT", "staging")
	defer os.Unsetenv("PHARMASTOCK_SERVER_ENVIRONMENT")

	if !IsProductionLike() {
		t.Error("IsProductionLike() = false for staging, want true")
	}
	if IsProduction() {
		t.Error("IsProduction() = true for staging, want false")
	}
}
