package configs

import "embed"

// FS holds the prompt files copied into a new runtime directory.
//
//go:embed SYSTEM.md IDENTITY.md
var FS embed.FS
