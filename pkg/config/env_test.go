package config

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV_VAR", "test_value")

	if got := GetEnv("TEST_GET_ENV_VAR", "default"); got != "test_value" {
		t.Errorf("GetEnv() = %v, want %v", got, "test_value")
	}

	if got := GetEnv("NON_EXISTING_STOCKCHECK_VAR", "default_value"); got != "default_value" {
		t.Errorf("GetEnv() = %v, want %v", got, "default_value")
	}
}

func TestIsProductionLike(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"", false},
		{"development", false},
		{"STAGING", true},
		{"production", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("MEDFLOW_SERVER_ENVIRONMENT", tt.env)
			if got := IsProductionLike(); got != tt.want {
				t.Errorf("IsProductionLike() = %v, want %v", got, tt.want)
			}
		})
	}
}
