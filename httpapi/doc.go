// Package httpapi exposes the Engine over JSON/HTTP with a chi router.
//
// Routes:
//
//	POST /v1/register   {"identity","password","initial_balance"}  201
//	POST /v1/login      {"identity","password"}                    200 {"token","expires_at","balance"}
//	GET  /v1/balance    Bearer                                     200 {"balance"}
//	POST /v1/deposit    Bearer {"amount"}                          200 {"balance"}
//	POST /v1/withdraw   Bearer {"amount"}                          200 {"balance"}
//	GET  /healthz
//	GET  /metrics       Prometheus text format
//
// The account acted on is always the bearer token's subject. Identity fields
// in transaction bodies are ignored. Error bodies carry a stable code and
// never internal detail.
package httpapi
