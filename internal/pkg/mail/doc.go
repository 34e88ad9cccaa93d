// Package mail sends reminder and welcome emails. Use cases depend on the
// Mail interface; SMTP delivers in production and Log writes the message to
// the structured log when no relay is configured.
package mail
