package config

const (
	EnvPrefix = "ALO17"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ALO17_DB_DSN"
	EnvDBHost = "ALO17_DB_HOST"
	EnvDBUser = "ALO17_DB_USER"
	EnvDBName = "ALO17_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
