// Package drive produces drive links for approved documents and, when MinIO
// is configured, stores the uploaded payloads behind them. The link scheme is
// deterministic per client, request, and document so re-approving the same
// document always yields the same path.
package drive

import "strings"

const linkBase = "https://drive.google.com/d"

// Link builds the synthetic drive path for an approved document.
func Link(clientName, requestID, documentName string) string {
	return linkBase + "/" + slug(clientName) + "/" + requestID + "/" + slug(documentName)
}

// ObjectKey is the bucket-relative key used when a payload is persisted.
func ObjectKey(clientName, requestID, documentName string) string {
	return slug(clientName) + "/" + requestID + "/" + slug(documentName)
}

func slug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
