// Package defaults provides the embedded example configuration written
// by agentic -init.
package defaults

import _ "embed"

//go:embed agentic.example.yaml
var ConfigYAML []byte
