package model

// CredentialType classifies what kind of secret a credential holds.
type CredentialType string

const (
	CredentialTypeAPIKey            CredentialType = "API_KEY"
	CredentialTypeDatabasePassword  CredentialType = "DATABASE_PASSWORD"
	CredentialTypeServiceToken      CredentialType = "SERVICE_TOKEN"
	CredentialTypeCertificate       CredentialType = "CERTIFICATE"
	CredentialTypePrivateKey        CredentialType = "PRIVATE_KEY"
	CredentialTypeSecretKey         CredentialType = "SECRET_KEY"
	CredentialTypeOAuthClientSecret CredentialType = "OAUTH_CLIENT_SECRET"
	CredentialTypeWebhookSecret     CredentialType = "WEBHOOK_SECRET"
)

// Valid reports whether t is one of the known credential types.
func (t CredentialType) Valid() bool {
	switch t {
	case CredentialTypeAPIKey, CredentialTypeDatabasePassword,
		CredentialTypeServiceToken, CredentialTypeCertificate,
		CredentialTypePrivateKey, CredentialTypeSecretKey,
		CredentialTypeOAuthClientSecret, CredentialTypeWebhookSecret:
		return true
	}
	return false
}

// AccessType identifies what a vault caller attempted against a credential.
type AccessType string

const (
	AccessTypeCreate  AccessType = "CREATE"
	AccessTypeRead    AccessType = "READ"    // Metadata lookup, no decryption.
	AccessTypeDecrypt AccessType = "DECRYPT" // Plaintext retrieval or validation.
	AccessTypeUpdate  AccessType = "UPDATE"
	AccessTypeRotate  AccessType = "ROTATE"
	AccessTypeDelete  AccessType = "DELETE"
)
