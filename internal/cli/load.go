package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix of all termslens environment variables.
// Nested keys use underscores: TERMSLENS_LLM_PROVIDER, TERMSLENS_SERVER_ADDR.
const envPrefix = "TERMSLENS"

// configureViper registers defaults and environment bindings on v
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key must be known to viper for env overrides to reach Unmarshal
	for key, value := range flattenDefaults() {
		v.SetDefault(key, value)
	}
	v.SetDefault("llm.api_key", "")

	_ = v.BindEnv("client.backend_url", envPrefix+"_CLIENT_BACKEND_URL", envPrefix+"_BACKEND_URL")
	_ = v.BindEnv("llm.api_key", envPrefix+"_LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", envPrefix+"_LLM_BASE_URL", "OLLAMA_BASE_URL")
	_ = v.BindEnv("http.http_proxy", envPrefix+"_HTTP_HTTP_PROXY", "HTTP_PROXY")
	_ = v.BindEnv("http.https_proxy", envPrefix+"_HTTP_HTTPS_PROXY", "HTTPS_PROXY")
	_ = v.BindEnv("http.no_proxy", envPrefix+"_HTTP_NO_PROXY", "NO_PROXY")
}

// loadConfig resolves flags, environment, config file and defaults into a
// Config. Provider API keys fall back to the provider's usual variable.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	c := model.DefaultConfig()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "openai", "":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	return c, nil
}

// flattenDefaults returns the default config as dotted viper keys
func flattenDefaults() map[string]any {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil
	}

	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if nested, ok := val.(map[string]any); ok {
				walk(key, nested)
				continue
			}
			out[key] = val
		}
	}
	walk("", tree)
	return out
}
