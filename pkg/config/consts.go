package config

const (
	EnvPrefix = "VENDFLEET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VENDFLEET_DB_DSN"
	EnvDBHost = "VENDFLEET_DB_HOST"
	EnvDBUser = "VENDFLEET_DB_USER"
	EnvDBName = "VENDFLEET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
