package system

// MaskedSecret 是读取配置时替代 api_key 的占位值。
const MaskedSecret = "***"

// LLMConfig 描述一个大模型连接。
type LLMConfig struct {
	Name          string         `json:"name" yaml:"name"`
	APIKey        *string        `json:"api_key" yaml:"api_key"`
	BaseURL       *string        `json:"base_url" yaml:"base_url"`
	ModelName     *string        `json:"model_name" yaml:"model_name"`
	DefaultParams map[string]any `json:"default_params" yaml:"default_params"`
}

// DatabaseConfig 描述一个外部数据源。
type DatabaseConfig struct {
	Type             string         `json:"type" yaml:"type"`
	ConnectionString *string        `json:"connection_string" yaml:"connection_string"`
	Config           map[string]any `json:"config" yaml:"config"`
}

// Config 是系统配置。作为更新请求时，nil 字段表示不修改。
type Config struct {
	LLMConfigs       []LLMConfig      `json:"llm_configs" yaml:"llm_configs"`
	DatabaseConfigs  []DatabaseConfig `json:"database_configs" yaml:"database_configs"`
	LogLevel         *string          `json:"log_level" yaml:"log_level"`
	CacheDir         *string          `json:"cache_dir" yaml:"cache_dir"`
	AdditionalConfig map[string]any   `json:"additional_config" yaml:"additional_config"`
}

// DefaultConfig 返回初始系统配置。
func DefaultConfig() Config {
	return Config{
		LLMConfigs: []LLMConfig{{
			Name:      "default_llm",
			APIKey:    ptr(MaskedSecret),
			BaseURL:   ptr("https://api.example.com"),
			ModelName: ptr("example-model"),
			DefaultParams: map[string]any{
				"temperature": 0.7,
				"max_tokens":  1000,
			},
		}},
		DatabaseConfigs: []DatabaseConfig{{
			Type:             "elasticsearch",
			ConnectionString: ptr("http://localhost:9200"),
			Config:           map[string]any{"index_prefix": "oxygent_"},
		}},
		LogLevel: ptr("INFO"),
		CacheDir: ptr("/tmp/oxygent_cache"),
		AdditionalConfig: map[string]any{
			"web_service_port":  8000,
			"enable_monitoring": true,
		},
	}
}

// Clone 返回深拷贝。
func (c Config) Clone() Config {
	out := Config{
		LogLevel:         clonePtr(c.LogLevel),
		CacheDir:         clonePtr(c.CacheDir),
		AdditionalConfig: cloneMap(c.AdditionalConfig),
	}
	if c.LLMConfigs != nil {
		out.LLMConfigs = make([]LLMConfig, len(c.LLMConfigs))
		for i, l := range c.LLMConfigs {
			out.LLMConfigs[i] = LLMConfig{
				Name:          l.Name,
				APIKey:        clonePtr(l.APIKey),
				BaseURL:       clonePtr(l.BaseURL),
				ModelName:     clonePtr(l.ModelName),
				DefaultParams: cloneMap(l.DefaultParams),
			}
		}
	}
	if c.DatabaseConfigs != nil {
		out.DatabaseConfigs = make([]DatabaseConfig, len(c.DatabaseConfigs))
		for i, d := range c.DatabaseConfigs {
			out.DatabaseConfigs[i] = DatabaseConfig{
				Type:             d.Type,
				ConnectionString: clonePtr(d.ConnectionString),
				Config:           cloneMap(d.Config),
			}
		}
	}
	return out
}

// Masked 返回隐藏 api_key 的副本。
func (c Config) Masked() Config {
	out := c.Clone()
	for i := range out.LLMConfigs {
		if out.LLMConfigs[i].APIKey != nil && *out.LLMConfigs[i].APIKey != "" {
			out.LLMConfigs[i].APIKey = ptr(MaskedSecret)
		}
	}
	return out
}

// merge 将 patch 中非 nil 的字段写入 c，返回被修改的字段名。
// patch 中的 api_key 为占位值时沿用同名 LLM 的原有密钥。
func (c *Config) merge(patch Config) []string {
	var applied []string
	if patch.LLMConfigs != nil {
		previous := make(map[string]*string, len(c.LLMConfigs))
		for _, l := range c.LLMConfigs {
			previous[l.Name] = l.APIKey
		}
		next := patch.Clone().LLMConfigs
		for i := range next {
			if next[i].APIKey != nil && *next[i].APIKey == MaskedSecret {
				if key, ok := previous[next[i].Name]; ok {
					next[i].APIKey = clonePtr(key)
				}
			}
		}
		c.LLMConfigs = next
		applied = append(applied, "llm_configs")
	}
	if patch.DatabaseConfigs != nil {
		c.DatabaseConfigs = patch.Clone().DatabaseConfigs
		applied = append(applied, "database_configs")
	}
	if patch.LogLevel != nil {
		c.LogLevel = clonePtr(patch.LogLevel)
		applied = append(applied, "log_level")
	}
	if patch.CacheDir != nil {
		c.CacheDir = clonePtr(patch.CacheDir)
		applied = append(applied, "cache_dir")
	}
	if patch.AdditionalConfig != nil {
		c.AdditionalConfig = cloneMap(patch.AdditionalConfig)
		applied = append(applied, "additional_config")
	}
	return applied
}

func ptr[V any](v V) *V { return &v }

func clonePtr[V any](p *V) *V {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
