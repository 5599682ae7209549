// Package keys generates signing key pairs and access-key secrets for provisioning.
// Output is meant for a secret store, never for logs.
package keys
