// Package session tracks whether a user agent is signed in. Store holds the
// state for a single agent with an owned expiry timer; Tracker keeps the same
// facts per browser in an scs session for the HTTP server.
package session
