package vault

// Type represents the type of vault.
type Type string

const (
	// TypeDotEnv resolves secrets from the process environment (and .env).
	TypeDotEnv Type = "dotenv"
)
