// Package config loads runtime settings with viper.
//
// Sources, from lowest to highest precedence: built-in defaults, an optional YAML file,
// and environment variables. Call LoadDotEnv first to populate the environment from a
// .env file.
//
// Example sgr.yaml:
//
//	llm:
//	  model: gpt-4o-mini
//	  base_url: http://localhost:4000
//	gateway:
//	  max_attempts: 3
//	  retry_delay: 1s
//	agent:
//	  max_steps: 8
//	trace:
//	  dir: executions
//	session:
//	  store_url: redis://localhost:6379/0
package config
