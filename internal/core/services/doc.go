// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Adapters are injected through
// the driven ports; nil optional ports disable the matching feature.
package services
