package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/spf13/cobra"
)

// Build information variables (set by -ldflags during build). Values left
// at their defaults are filled from the module build info when available.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionJSON bool

// gatewayModules are the platform client libraries reported by version
var gatewayModules = map[string]string{
	"github.com/bwmarrin/discordgo":                       "discord",
	"github.com/go-telegram-bot-api/telegram-bot-api/v5": "telegram",
}

// VersionOutput represents the version output structure
type VersionOutput struct {
	Version   string            `json:"version"`
	BuildTime string            `json:"build_time"`
	GitCommit string            `json:"git_commit"`
	Modified  bool              `json:"modified,omitempty"`
	GoVersion string            `json:"go_version"`
	Platform  string            `json:"platform"`
	Gateways  map[string]string `json:"gateways,omitempty"`
}

// buildVersion merges the -ldflags values with the embedded build info
func buildVersion(info *debug.BuildInfo) VersionOutput {
	v := VersionOutput{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info == nil {
		return v
	}

	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.GitCommit == "unknown" {
				v.GitCommit = s.Value
			}
		case "vcs.time":
			if v.BuildTime == "unknown" {
				v.BuildTime = s.Value
			}
		case "vcs.modified":
			v.Modified = s.Value == "true"
		}
	}

	for _, dep := range info.Deps {
		name, ok := gatewayModules[dep.Path]
		if !ok {
			continue
		}
		if v.Gateways == nil {
			v.Gateways = make(map[string]string)
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		v.Gateways[name] = dep.Version
	}
	return v
}

func printVersion(out io.Writer, v VersionOutput) {
	commit := v.GitCommit
	if v.Modified {
		commit += " (modified)"
	}

	fmt.Fprintln(out, "replybot version information:")
	fmt.Fprintf(out, "  Version:   %s\n", v.Version)
	fmt.Fprintf(out, "  BuildTime: %s\n", v.BuildTime)
	fmt.Fprintf(out, "  GitCommit: %s\n", commit)
	fmt.Fprintf(out, "  Go:        %s %s\n", v.GoVersion, v.Platform)

	names := make([]string, 0, len(v.Gateways))
	for name := range v.Gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  Gateway:   %s %s\n", name, v.Gateways[name])
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the version, build time, commit and Go toolchain of this binary,
along with the versions of the platform client libraries it was built with.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, _ := debug.ReadBuildInfo()
		version := buildVersion(info)
		out := cmd.OutOrStdout()

		if !versionJSON {
			printVersion(out, version)
			return nil
		}

		output, err := json.MarshalIndent(version, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version: %w", err)
		}
		fmt.Fprintln(out, string(output))
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output in JSON format")
}
