package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	c := Config{}
	c.HTTP.Port = 8080
	c.Database.Addrs = []string{"localhost:6379"}
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := validConfig()

	if c.Embedding.Provider != "gemini" {
		t.Errorf("default provider: got %q", c.Embedding.Provider)
	}
	if c.Embedding.Model != "text-embedding-004" {
		t.Errorf("default model: got %q", c.Embedding.Model)
	}
	if c.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions: got %d", c.Embedding.Dimensions)
	}
	if c.Search.RRFK != 60 {
		t.Errorf("default rrf_k: got %d", c.Search.RRFK)
	}
	if c.Search.OverfetchFactor != 2 || c.Search.CandidateMultiplier != 5 || c.Search.CandidateCeiling != 1000 {
		t.Errorf("default search knobs: %+v", c.Search)
	}
	if c.Knowledge.MinConfidence != 0.5 || c.Knowledge.SimilarLimit != 3 {
		t.Errorf("default knowledge knobs: %+v", c.Knowledge)
	}
	if c.Storage.KeyPrefix != "agridex:" {
		t.Errorf("default key prefix: got %q", c.Storage.KeyPrefix)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid", func(*Config) {}, true},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, false},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, false},
		{"bad provider", func(c *Config) { c.Embedding.Provider = "cohere" }, false},
		{"bad dimensions", func(c *Config) { c.Embedding.Dimensions = 512 }, false},
		{"overfetch too small", func(c *Config) { c.Search.OverfetchFactor = 1 }, false},
		{"confidence above one", func(c *Config) { c.Knowledge.MinConfidence = 1.5 }, false},
		{"openai provider", func(c *Config) { c.Embedding.Provider = "openai" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("AGRIDEX_TEST_KEY", "secret")
	os.Unsetenv("AGRIDEX_TEST_MISSING")

	in := []byte("api_key: ${AGRIDEX_TEST_KEY}\nport: ${AGRIDEX_TEST_MISSING:-8080}\nempty: ${AGRIDEX_TEST_MISSING}")
	got := string(expandEnvVars(in))
	want := "api_key: secret\nport: 8080\nempty: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("default env: got %q", env)
	}
	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("got %q", env)
	}
}
