package config

// Option 配置选项函数
type Option func(*manager)

// WithDefaults 设置默认配置值
func WithDefaults(defaults map[string]any) Option {
	return func(m *manager) {
		for key, value := range defaults {
			m.v.SetDefault(key, value)
		}
	}
}

// WithConfigType 设置配置文件类型，文件无扩展名时使用
func WithConfigType(configType string) Option {
	return func(m *manager) {
		m.v.SetConfigType(configType)
	}
}

// WithOverrides 设置最高优先级的值，例如命令行参数
func WithOverrides(values map[string]any) Option {
	return func(m *manager) {
		for key, value := range values {
			m.v.Set(key, value)
		}
	}
}
