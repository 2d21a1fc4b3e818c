// Package auth handles service-account credential material for Yandex Cloud:
// key normalization, IAM token minting, and token caching.
package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ServiceAccountKey is an authorized key for a Yandex Cloud service account.
// AccessKeyID is the key id ("id" in the downloaded key file).
type ServiceAccountKey struct {
	ServiceAccountID string
	AccessKeyID      string
	PrivateKey       string
}

// StaticKey is an access-key/secret pair for the AWS-compatible surfaces
// (Object Storage, Postbox, YDB Document API).
type StaticKey struct {
	AccessKeyID     string
	SecretAccessKey string
}

// FieldError reports the first missing required credential field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("credentials are missing required field %q", e.Field)
}

// ParseServiceAccountKey parses a service-account key JSON blob. The key file
// Yandex Cloud hands out uses snake_case, while keys pasted from API
// responses arrive in camelCase; every top-level key is rewritten to
// camelCase before field selection so both spellings normalize identically.
// Missing fields are reported in a fixed order: service account id, access
// key id, private key.
func ParseServiceAccountKey(raw string) (*ServiceAccountKey, error) {
	var blob map[string]any
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil, fmt.Errorf("service account key is not valid JSON: %w", err)
	}

	norm := make(map[string]any, len(blob))
	for k, v := range blob {
		norm[toCamelCase(k)] = v
	}

	key := &ServiceAccountKey{}
	key.ServiceAccountID, _ = norm["serviceAccountId"].(string)

	// "id" wins over "accessKeyId" when both are present.
	if id, ok := norm["id"].(string); ok && id != "" {
		key.AccessKeyID = id
	} else {
		key.AccessKeyID, _ = norm["accessKeyId"].(string)
	}

	key.PrivateKey, _ = norm["privateKey"].(string)

	if key.ServiceAccountID == "" {
		return nil, &FieldError{Field: "serviceAccountId"}
	}

	if key.AccessKeyID == "" {
		return nil, &FieldError{Field: "accessKeyId"}
	}

	if key.PrivateKey == "" {
		return nil, &FieldError{Field: "privateKey"}
	}

	return key, nil
}

// ServiceAccountKeyFromCredentials extracts and normalizes the service-account
// key JSON from a host-supplied credentials map.
func ServiceAccountKeyFromCredentials(credentials map[string]any) (*ServiceAccountKey, error) {
	raw, _ := credentials["serviceAccountJSON"].(string)
	if raw == "" {
		return nil, &FieldError{Field: "serviceAccountJSON"}
	}

	return ParseServiceAccountKey(raw)
}

// StaticKeyFromCredentials extracts a static access key from a host-supplied
// credentials map.
func StaticKeyFromCredentials(credentials map[string]any) (*StaticKey, error) {
	accessKeyID, _ := credentials["accessKeyId"].(string)
	if accessKeyID == "" {
		return nil, &FieldError{Field: "accessKeyId"}
	}

	secret, _ := credentials["secretAccessKey"].(string)
	if secret == "" {
		return nil, &FieldError{Field: "secretAccessKey"}
	}

	return &StaticKey{AccessKeyID: accessKeyID, SecretAccessKey: secret}, nil
}

// toCamelCase rewrites snake_case to camelCase and leaves camelCase input
// untouched.
func toCamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}

	parts := strings.Split(s, "_")
	out := make([]string, 0, len(parts))

	first := true

	for _, part := range parts {
		if part == "" {
			continue
		}

		if first {
			out = append(out, strings.ToLower(part))
			first = false

			continue
		}

		out = append(out, strings.ToUpper(part[:1])+strings.ToLower(part[1:]))
	}

	return strings.Join(out, "")
}
