// Package config 提供统一的配置加载：默认值 → YAML 文件 → 环境变量覆盖。
package config
