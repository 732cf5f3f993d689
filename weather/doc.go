// Package weather is a QWeather API client and the forecast types shared by
// the weather capabilities and the archive store.
//
// Every request runs through a resilience.Executor: a rate limiter for the
// account quota, a circuit breaker, retries for 5xx and 429 responses and a
// per-attempt timeout. Lookups that match nothing return ErrCityNotFound
// and are never retried.
package weather
