// Package config loads vendora settings.
//
// Sources, lowest precedence first: built-in defaults, a YAML file,
// environment variables. Environment variables use the VENDORA_ prefix with
// dots replaced by underscores (VENDORA_BACKEND_URL); the backend URL and
// anon key also honour SUPABASE_URL and SUPABASE_ANON_KEY.
//
// String values may reference the environment as ${VAR}, which must be set,
// and secrets as secretref:<provider>:<ref>:
//
//	backend:
//	  url: https://${PROJECT}.supabase.co
//	  anon_key: secretref:file:/run/secrets/anon_key
//
// When no backend credentials are configured the loader falls back to a
// placeholder endpoint and sets MockMode, so the CLI can start offline.
package config
