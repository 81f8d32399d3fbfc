// Package types defines the Backend interface, the Entity and Link data
// model, and the standard errors shared by every backend adapter, the link
// graph engine, and the CLI.
package types
