// Package secret resolves credentials referenced from configuration.
//
// A value is first expanded against the environment (ExpandEnvStrict),
// then any secretref:<provider>:<ref> reference is replaced by the
// provider's value:
//
//	api_key: secretref:env:QWEATHER_KEY
//	password: secretref:file:smtp_password
//	dsn: "user:${DB_PASS}@tcp(db)"
//
// The env and file providers are built in; Registry creates them by name.
package secret
