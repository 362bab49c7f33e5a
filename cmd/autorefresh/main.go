package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/autorefresh/internal/config"
	"github.com/ensigniasec/autorefresh/internal/menu"
	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/reload"
	"github.com/ensigniasec/autorefresh/internal/storage"
	"github.com/ensigniasec/autorefresh/internal/tui"
)

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings in current structure.
var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"
	commit         = "none"
	date           = "unknown"

	// Used for flags.
	configFile string
	storeDSN   string
	logFile    string
	verbose    bool
	jsonOutput bool
	yamlOutput bool

	execCommand string
	static      bool
	noFade      bool

	rootCmd = &cobra.Command{
		Use:   "autorefresh",
		Short: "Reload an address on a per-address timer, with an on-screen countdown panel.",
		Long: `autorefresh remembers a refresh interval for each address you choose. Watching an address loads it, counts down ` +
			`the configured interval in a small panel you can pause, reset, reconfigure and drag around, and reloads it when ` +
			`the countdown runs out. Addresses without an interval load once and stay put.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else if jsonOutput || yamlOutput {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
	}
)

//nolint:gochecknoinits // Cobra command wiring performed in init in current structure.
func init() {
	// Route logs to stderr to avoid polluting stdout, especially for --json output.
	logrus.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format instead of rich text")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "Output results in YAML format instead of rich text")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "Optional: settings file (default ~/.config/autorefresh/config.yaml)")
	rootCmd.PersistentFlags().
		StringVar(&storeDSN, "store", "", "Optional: preference store; a JSON file path, sqlite:PATH or memory:")
	rootCmd.PersistentFlags().
		StringVar(&logFile, "log-file", "", "Optional: write logs here while the watch screen is open")

	watchCmd.Flags().StringVar(&execCommand, "exec", "", "Run this shell command on every load instead of fetching the address over HTTP")
	watchCmd.Flags().BoolVar(&static, "static", false, "Keep the panel fixed in place")
	watchCmd.Flags().BoolVar(&noFade, "no-fade", false, "Keep the panel fully visible while idle")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(positionCmd)

	positionCmd.AddCommand(positionShowCmd)
	positionCmd.AddCommand(positionResetCmd)

	// Built-in version flag: set version string and a custom template.
	rootCmd.Version = releaseVersion
	rootCmd.Annotations = map[string]string{"commit": commit, "date": date}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func main() {
	Execute()
}

// loadSettings reads the settings file and applies flag overrides.
func loadSettings() config.Settings {
	if jsonOutput && yamlOutput {
		logrus.Fatal("Cannot use --json and --yaml flags together")
	}
	s, err := config.Load(configFile)
	if err != nil {
		logrus.Fatalf("Unable to load settings: %v", err)
	}
	if storeDSN != "" {
		s.Store = storeDSN
	}
	if logFile != "" {
		s.LogFile = logFile
	}
	return s
}

// openStore opens the preference store named in the settings.
func openStore(s config.Settings) storage.Store {
	st, err := storage.Open(s.Store)
	if err != nil {
		logrus.Fatalf("Unable to open or create storage: %v", err)
	}
	return st
}

// exitOnError ends the process with a failure status after an error notice
// has already been printed.
func exitOnError(st storage.Store, r menu.Result) {
	if code := exitCode(st, r); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps r to a process status. os.Exit skips deferred calls, so on
// failure the store is closed here first.
func exitCode(st storage.Store, r menu.Result) int {
	if !r.IsError() {
		return 0
	}
	if err := st.Close(); err != nil {
		logrus.WithError(err).Warn("Closing storage failed")
	}
	return 1
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var watchCmd = &cobra.Command{
	Use:   "watch ADDRESS",
	Short: "Open the watch screen for an address",
	Long: "Load ADDRESS and, if a refresh interval is configured for it, count down and reload it when the countdown " +
		"runs out. ADDRESS is fetched over HTTP unless --exec is given.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := loadSettings()
		st := openStore(s)
		defer st.Close()

		var loader reload.Loader = reload.NewHTTPLoader(s.HTTPTimeout)
		if execCommand == "" {
			execCommand = s.Exec
		}
		if execCommand != "" {
			loader = &reload.CommandLoader{Command: execCommand}
		}

		surface := tui.SurfaceOptions{
			Draggable:   s.Draggable && !static,
			FadeIdle:    s.FadeIdle && !noFade,
			FadeDelay:   s.FadeDelay,
			FadeOpacity: s.FadeOpacity,
		}
		opts := tui.Options{
			Address:   args[0],
			Loader:    loader,
			Config:    prefs.NewConfigStore(st),
			Positions: prefs.NewPositionStore(st),
			Surface:   surface,
		}
		if err := tui.Run(cmd.Context(), opts, s.LogFile); err != nil {
			logrus.Fatalf("Watch screen failed: %v", err)
		}
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var setCmd = &cobra.Command{
	Use:   "set ADDRESS [SECONDS]",
	Short: "Set the refresh interval for an address",
	Long: "Store a refresh interval for ADDRESS. Without SECONDS you are prompted, with the current interval or 60 " +
		"as the default. The change applies the next time the address is loaded.",
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // ADDRESS plus optional SECONDS by CLI contract
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(loadSettings())
		defer st.Close()

		m := menu.New(prefs.NewConfigStore(st),
			menu.LinePrompter{Stdin: os.Stdin, Stdout: os.Stdout},
			menu.WriterNotifier{W: os.Stdout},
		)
		var r menu.Result
		if len(args) == 2 { //nolint:mnd // SECONDS given
			r = m.ApplyInterval(cmd.Context(), args[0], args[1])
		} else {
			r = m.SetInterval(cmd.Context(), args[0])
		}
		exitOnError(st, r)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var clearCmd = &cobra.Command{
	Use:   "clear ADDRESS",
	Short: "Disable auto refresh for an address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(loadSettings())
		defer st.Close()

		m := menu.New(prefs.NewConfigStore(st), nil, menu.WriterNotifier{W: os.Stdout})
		exitOnError(st, m.ClearInterval(cmd.Context(), args[0]))
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured refresh intervals",
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(loadSettings())
		defer st.Close()

		cfg := prefs.NewConfigStore(st)
		ctx := cmd.Context()
		switch {
		case jsonOutput:
			printJSON(cfg.Load(ctx).Entries())
		case yamlOutput:
			printYAML(cfg.Load(ctx).Entries())
		default:
			cfg.Print(ctx, os.Stdout)
		}
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var menuCmd = &cobra.Command{
	Use:   "menu ADDRESS",
	Short: "Pick one of the menu actions for an address",
	Long:  "Show the actions available for ADDRESS and run the one you pick. This is the menu the watch screen opens with m.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(loadSettings())
		defer st.Close()

		prompter := menu.LinePrompter{Stdin: os.Stdin, Stdout: os.Stdout}
		var actions menu.Actions
		menu.New(prefs.NewConfigStore(st), prompter, menu.WriterNotifier{W: os.Stdout}).Register(&actions, args[0])

		for i, a := range actions {
			fmt.Fprintf(os.Stdout, "%d) %s\n", i+1, a.Title)
		}
		choice, err := prompter.Prompt(cmd.Context(), "Choose an action:", "1")
		if err != nil {
			return
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(actions) {
			logrus.Fatalf("Invalid choice: %q", choice)
		}
		exitOnError(st, actions[n-1].Run(cmd.Context()))
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Manage the remembered panel position",
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var positionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the remembered panel position (if any)",
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(loadSettings())
		defer st.Close()

		pos, ok := prefs.NewPositionStore(st).Load(cmd.Context())
		switch {
		case jsonOutput:
			printJSON(positionView(pos, ok))
		case yamlOutput:
			printYAML(positionView(pos, ok))
		case !ok:
			fmt.Fprintln(os.Stdout, "No panel position stored; the panel opens in the bottom-right corner")
		default:
			fmt.Fprintf(os.Stdout, "left: %d\ntop: %d\n", pos.Left, pos.Top)
		}
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var positionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the panel position",
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore(loadSettings())
		defer st.Close()

		if err := prefs.NewPositionStore(st).Clear(cmd.Context()); err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintln(os.Stdout, "Panel position cleared")
	},
}

// storedPosition is the machine-readable form of position show.
type storedPosition struct {
	Stored bool `json:"stored"         yaml:"stored"`
	Left   *int `json:"left,omitempty" yaml:"left,omitempty"`
	Top    *int `json:"top,omitempty"  yaml:"top,omitempty"`
}

func positionView(pos prefs.Position, ok bool) storedPosition {
	if !ok {
		return storedPosition{}
	}
	return storedPosition{Stored: true, Left: &pos.Left, Top: &pos.Top}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.Fatal(err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}

func printYAML(v any) {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2) //nolint:mnd // two-space YAML
	if err := enc.Encode(v); err != nil {
		logrus.Fatal(err)
	}
	_ = enc.Close()
}
