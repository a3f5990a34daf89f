package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// unknownBuildValue is shown when neither ldflags nor the module build info
// carry a value.
const unknownBuildValue = "unknown"

// buildInfo holds the module version and the VCS settings the toolchain
// stamped into the binary.
type buildInfo struct {
	moduleVersion string
	settings      map[string]string
}

// readBuildInfo returns the embedded build info, empty outside module builds.
func readBuildInfo() buildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return buildInfo{}
	}
	bi := buildInfo{
		moduleVersion: info.Main.Version,
		settings:      make(map[string]string, len(info.Settings)),
	}
	for _, s := range info.Settings {
		bi.settings[s.Key] = s.Value
	}
	return bi
}

// firstNonEmpty returns the first non-empty value, or fallback.
func firstNonEmpty(fallback string, values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return fallback
}

func getVersion() string {
	return firstNonEmpty("(devel)", version, readBuildInfo().moduleVersion)
}

// getCommit returns the commit hash, shortened to 7 characters when it
// comes from the VCS stamp.
func getCommit() string {
	rev := readBuildInfo().settings["vcs.revision"]
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return firstNonEmpty(unknownBuildValue, commit, rev)
}

func getDate() string {
	return firstNonEmpty(unknownBuildValue, date, readBuildInfo().settings["vcs.time"])
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the prodcheck version with the commit and build date it was built from.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, getVersion())
				return nil
			}
			fmt.Fprintf(out, "prodcheck version %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
			return nil
		},
	}

	cmd.Flags().Bool("short", false, "Print only the version number")
	return cmd
}
