package cmd

// version is set at build time using -ldflags.
var version = "dev"

// Version returns the build version of the application.
func Version() string {
	return version
}

// SetVersion overrides the build version, e.g. from the root command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
