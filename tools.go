//go:build tools
// +build tools

// Package tools pins the code generators run by go generate, mockgen for the
// contract mocks, as module dependencies.
package chat_sync

import (
	_ "go.uber.org/mock/mockgen"
)
