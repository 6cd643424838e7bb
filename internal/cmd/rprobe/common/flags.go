package common

const (
	FlagNameNamespace  = "namespace"
	FlagDescNamespace  = "The namespace the rancher pods run in"
	FlagNameContext    = "context"
	FlagDescContext    = "The kubeconfig context to use"
	FlagNameKubeconfig = "kubeconfig"
	FlagDescKubeconfig = "Path to the kubeconfig file to use"
	FlagNameVerbose    = "verbose"
	FlagDescVerbose    = "Enable debug logging"

	FlagNameOutput   = "output"
	FlagNameDryRun   = "dry-run"
	FlagDescDryRun   = "Print what would be done without touching the cluster"
	FlagNameTimeout  = "timeout"
	FlagNameInterval = "interval"
	FlagDescInterval = "Interval between poll attempts"

	FlagNamePodPrefix = "pod-prefix"
	FlagDescPodPrefix = "Only consider pods whose name starts with this prefix"
	FlagNameExclude   = "exclude"
	FlagDescExclude   = "Skip pods whose name contains any of these fragments"
	FlagNameContainer = "container"
	FlagDescContainer = "The container to run the probe in, defaulting to the first container of each pod"

	FlagNamePort              = "port"
	FlagNamePortHex           = "port-hex"
	FlagNameMode              = "mode"
	FlagNameArchive           = "archive"
	FlagDescArchive           = "Pack the log directory into a .tar.gz as well"
	FlagNameUseDebugContainer = "use-debug-container"
	FlagNameDebugImage        = "debug-image"

	FlagNameServer             = "server"
	FlagDescServer             = "The rancher server URL"
	FlagNameToken              = "token"
	FlagDescToken              = "The rancher API bearer token"
	FlagNameInsecureSkipVerify = "insecure-skip-verify"
	FlagDescInsecureSkipVerify = "Skip TLS certificate verification, for lab clusters with self-signed certificates"
	FlagNamePortForward        = "port-forward"
	FlagDescPortForward        = "Reach steve through a port-forward to a rancher pod instead of an external URL"
	FlagNameLocalPort          = "local-port"
	FlagDescLocalPort          = "The local port the port-forward listens on"
	FlagNameSuite              = "suite"
	FlagNameAutoMode           = "auto-mode"
	FlagDescAutoMode           = "Run non-interactively: skip the cleanup prompt and always delete the test fixtures"
	FlagNameSkipCleanup        = "skip-cleanup"
	FlagDescSkipCleanup        = "Keep the test fixtures for inspection"
	FlagNameStrictCleanup      = "strict-cleanup"
	FlagDescStrictCleanup      = "Treat a cleanup failure as a run failure"

	FlagNameMismatchOnly   = "mismatch-only"
	FlagDescMismatchOnly   = "Only report dependencies whose versions differ"
	FlagNameFailOnMismatch = "fail-on-mismatch"
	FlagDescFailOnMismatch = "Exit 1 when any dependency version differs"
	FlagNameDirectOnly     = "direct-only"
	FlagDescDirectOnly     = "Ignore dependencies that are indirect on both sides"

	FlagNameSQL        = "sql"
	FlagNameTitlesFile = "titles-file"
	FlagNamePlanTitle  = "plan-title"
	FlagNameForce      = "force"
	FlagDescForce      = "Overwrite the output file when it already exists"
)

// Environment variables the scripts were driven with, honored as flag
// defaults.
const (
	EnvNamespace   = "NAMESPACE"
	EnvPortToCheck = "PORT_TO_CHECK"
	EnvPortHex     = "PORT_HEX"
)
