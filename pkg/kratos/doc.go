// Package kratos is a small client for the Ory Kratos frontend API: creating,
// fetching and updating self-service flows, whoami, logout, stored errors and
// health. Each call runs in its own otel span.
package kratos
