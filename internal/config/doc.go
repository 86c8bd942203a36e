// Package config loads codeweave settings from YAML, .env files and the
// environment.
//
// Load starts from DefaultConfig, overlays the YAML file when present, fills
// zero values back from the defaults and finally applies the CODEWEAVE_*
// environment variables. Governor and ClassifierConfig.Registry turn the
// loaded values into the chunker limits and the classifier override table.
package config
