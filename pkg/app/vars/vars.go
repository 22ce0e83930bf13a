package vars

const (

	// ID
	Name        = "repo-guardian"
	Description = "Track the repository surface of GitHub organizations and scan only what changed for leaked secrets."
	URL         = "https://github.com/pantheon-systems/repo-guardian"

	// Config
	EnvVarPrefix = "GUARDIAN_"
)
