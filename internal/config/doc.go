// Package config loads the YAML configuration of the study service.
//
// Every field has a default, so a configuration file is optional. The
// Gemini API key is read from GEMINI_API_KEY or GOOGLE_API_KEY when the
// file leaves ai.api_key empty.
package config
