// Package config provides the configuration of prodcheck: defaults, the
// .prodcheck YAML file and the XDG directories used for the run history.
//
// Values are resolved in three layers. NewConfig supplies the defaults, a
// configuration file found by FindConfigFile is applied over them, and the
// command line flags a user sets explicitly are applied last.
package config
