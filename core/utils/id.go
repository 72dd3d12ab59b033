package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateID returns a short id for credential rows.
func GenerateID() string {
	return generate(16)
}

// GenerateRequestID returns the id attached to each inbound request.
func GenerateRequestID() string {
	return generate(12)
}

func generate(n int) string {
	id, err := gonanoid.Generate(idAlphabet, n)
	if err != nil {
		return ""
	}
	return id
}
