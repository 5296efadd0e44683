package commands

import (
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
)

// ServiceFunc returns the evaluation service once the root command has connected it.
type ServiceFunc func() compliance.Service
