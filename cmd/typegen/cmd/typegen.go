package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nodetool-ai/nodetool-sdk/config"
	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/generate"
	"github.com/nodetool-ai/nodetool-sdk/internal/httpclient"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/manifest"
)

var (
	configFile  string
	typesOnly   bool
	nodesOnly   bool
	noWorkspace bool

	// v holds the layered configuration once PersistentPreRunE ran
	v *viper.Viper
)

// flagKeys maps flags to the config keys they override
var flagKeys = map[string]string{
	"output":    "output",
	"namespace": "namespace",
	"core":      "core.path",
	"registry":  "packages.registry",
	"workspace": "workspace.root",
	"json":      "log.json",
	"verbose":   "log.verbosity",
}

// TypegenCmd represents the typegen command
var TypegenCmd = &cobra.Command{
	Use:   "typegen",
	Short: "Generate C# MessagePack types from nodetool packages",
	Long: `Generate C# data types and node stubs from nodetool packages.

Every package describes its BaseType and BaseNode classes in static
*.typegen.{toml,yaml,json} manifests. typegen discovers the core package,
the package registry and nodetool-* checkouts in the workspace, and writes:

  Types/<Pkg>/<Name>.cs   one [MessagePackObject] class per data type
  Nodes/<Pkg>/<Name>.cs   one class per node with a Process() stub
  Types/<Pkg>.cs          package summary with a Registry class
  NodeToolTypes.cs        serializer options and known-type registry

Configuration is read from typegen.toml (searched upward from the working
directory), NODETOOL_TYPEGEN_* environment variables and flags.

Examples:
  typegen                                  # Generate into the configured output
  typegen -o sdk/csharp/Nodetool.Types     # Explicit output directory
  typegen --core ../nodetool-core/src      # Explicit core source tree
  typegen --types-only                     # Data types only, no cleanup
  typegen check                            # Fail if committed output is stale
  typegen watch                            # Regenerate on manifest changes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runTypegen,
}

func init() {
	flags := TypegenCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: typegen.toml found upward from the working directory)")
	flags.StringP("output", "o", config.DefaultOutput, "Output directory")
	flags.StringP("namespace", "n", config.DefaultNamespace, "Root C# namespace")
	flags.String("core", config.DefaultCorePath, "Source tree of nodetool-core")
	flags.String("registry", "", "Package registry file")
	flags.String("workspace", config.DefaultWorkspaceRoot, "Directory holding nodetool-* checkouts")
	flags.BoolVar(&noWorkspace, "no-workspace", false, "Do not scan the workspace for packages")
	flags.Bool("json", false, "Emit JSON logs and progress events")
	flags.CountP("verbose", "v", "Increase verbosity (-v stages, -vv discovery, -vvv files)")

	TypegenCmd.Flags().BoolVar(&typesOnly, "types-only", false, "Only generate data types")
	TypegenCmd.Flags().BoolVar(&nodesOnly, "nodes-only", false, "Only generate nodes")
	TypegenCmd.MarkFlagsMutuallyExclusive("types-only", "nodes-only")

	TypegenCmd.AddCommand(TypegenCheckCmd)
	TypegenCmd.AddCommand(TypegenWatchCmd)
	TypegenCmd.AddCommand(TypegenAggregateCmd)
	TypegenCmd.AddCommand(ConfigCmd)
	TypegenCmd.AddCommand(VersionCmd)
}

// setup layers defaults, config file, environment and flags, then
// initializes logging
func setup(cmd *cobra.Command, args []string) error {
	var err error
	v, err = config.NewViper(configFile)
	if err != nil {
		return err
	}

	// Only explicitly set flags override the file and environment
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	if noWorkspace {
		v.Set("workspace.enabled", false)
	}

	return logger.Initialize(v.GetBool("log.json"), v.GetInt("log.verbosity"))
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind --%s", name)
		}
	}
	return nil
}

// loadConfig returns the validated effective configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"), "see typegen config init for every key")
	}
	logger.Debugw("Effective configuration",
		"config_file", v.ConfigFileUsed(),
		"output", cfg.Output,
		logger.FieldNamespace, cfg.Namespace,
		"core", cfg.Core.Path,
		"registry", cfg.Packages.Registry,
		"workspace", cfg.Workspace.Root,
		"workspace_enabled", cfg.Workspace.Enabled,
		"sdk_version", cfg.SDKVersion,
	)
	if !cfg.Log.JSON && logger.ShouldOutput(cfg.Log.Verbosity, logger.OutputConfig) {
		printConfig(v.ConfigFileUsed(), cfg)
	}
	return cfg, nil
}

// printConfig shows the effective configuration at -vv
func printConfig(file string, cfg *config.Config) {
	if file == "" {
		file = "(defaults)"
	}
	data := pterm.TableData{
		{"Key", "Value"},
		{"config file", file},
		{"output", cfg.Output},
		{"namespace", cfg.Namespace},
		{"sdk_version", cfg.SDKVersion},
		{"core.path", cfg.Core.Path},
		{"packages.registry", cfg.Packages.Registry},
		{"workspace.root", cfg.Workspace.Root},
		{"workspace.enabled", fmt.Sprintf("%t", cfg.Workspace.Enabled)},
		{"fetch.cache_dir", cfg.Fetch.CacheDir},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Printf("Failed to render configuration: %v\n", err)
	}
}

// newDiscoverer wires discovery to the configured package sources
func newDiscoverer(cfg *config.Config) *discovery.Discoverer {
	log := logger.Logger.Named("discovery")
	return discovery.New(discovery.Options{
		CorePath:        cfg.Core.Path,
		RegistryPath:    cfg.Packages.Registry,
		WorkspaceRoot:   cfg.Workspace.Root,
		WorkspacePrefix: cfg.Workspace.Prefix,
		ScanWorkspace:   cfg.Workspace.Enabled,
		SDKVersion:      cfg.SDKVersion,
		Fetcher: manifest.NewFetcher(cfg.Fetch.CacheDir, log.Named("fetch")).
			WithHTTPClient(httpclient.New(httpclient.Options{
				Timeout:      time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
				BlockPrivate: cfg.Fetch.BlockPrivate,
			})),
	}, log)
}

// newEmitter selects JSON events or terminal output
func newEmitter(cfg *config.Config) generate.ProgressEmitter {
	if cfg.Log.JSON {
		return generate.NewJSONEmitter(os.Stdout)
	}
	return generate.NewCLIEmitter(cfg.Log.Verbosity)
}

func selectedMode() generate.Mode {
	switch {
	case typesOnly:
		return generate.ModeTypes
	case nodesOnly:
		return generate.ModeNodes
	}
	return generate.ModeFull
}

func runTypegen(cmd *cobra.Command, args []string) error {
	defer logger.Cleanup()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner := generate.New(generate.Options{
		OutputDir: cfg.Output,
		Namespace: cfg.Namespace,
		Mode:      selectedMode(),
	}, newDiscoverer(cfg), newEmitter(cfg), logger.Logger.Named("generate"))

	_, err = runner.Run(contextOf(cmd))
	return err
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
