package metrics

const (
	defaultEnabled   = true
	defaultNamespace = "dualchain"
)
