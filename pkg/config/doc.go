// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for .env files. Every package in this module
// exposes a Config struct with env tags; the binary loads them through Load:
//
//	var pgCfg pg.Config
//	if err := config.Load(&pgCfg); err != nil {
//		return err
//	}
//
// Parsed values are cached per type, so repeated Load calls are cheap and
// consistent. Tests that change the environment call ResetCache first.
//
// LoadEnv reads extra .env files, such as the one passed with --env-file.
package config
