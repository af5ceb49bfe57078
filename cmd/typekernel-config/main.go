package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/orizon-lang/typekernel/internal/cli"
	"github.com/orizon-lang/typekernel/internal/config"
)

func main() {
	var (
		showVersion bool
		showHelp    bool
		jsonOutput  bool
		configFile  string
		initFlag    bool
		validate    bool
		show        bool
		set         string
		get         string
	)

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&showHelp, "help", false, "show help information")
	flag.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	flag.StringVar(&configFile, "config", "typekernel.yaml", "configuration file path (.json, .yaml or .yml)")
	flag.BoolVar(&initFlag, "init", false, "write a configuration file with the default bounds")
	flag.BoolVar(&validate, "validate", false, "validate configuration file")
	flag.BoolVar(&show, "show", false, "show current configuration")
	flag.StringVar(&set, "set", "", "set configuration value (key=value)")
	flag.StringVar(&get, "get", "", "get configuration value by key")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Type kernel configuration manager.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKEYS:\n")
		for _, k := range keyNames() {
			fmt.Fprintf(os.Stderr, "  %s\n", k)
		}
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s --init\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --set unification.max_solutions=4\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --get reduction.max_steps\n", os.Args[0])
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		cli.PrintVersion(os.Stdout, "Type Kernel Config Manager", jsonOutput)
		os.Exit(0)
	}

	switch {
	case initFlag:
		if err := initConfig(configFile); err != nil {
			cli.ExitWithError("Failed to initialize config: %v", err)
		}
		fmt.Printf("Configuration initialized: %s\n", configFile)
	case validate:
		if _, err := config.Load(configFile); err != nil {
			cli.ExitWithError("Configuration validation failed: %v", err)
		}
		fmt.Printf("Configuration is valid: %s\n", configFile)
	case show:
		cfg, err := config.Load(configFile)
		if err != nil {
			cli.ExitWithError("Failed to load config: %v", err)
		}
		if err := showConfig(os.Stdout, cfg, jsonOutput); err != nil {
			cli.ExitWithError("Failed to show config: %v", err)
		}
	case set != "":
		if err := setConfigValue(configFile, set); err != nil {
			cli.ExitWithError("Failed to set config value: %v", err)
		}
		fmt.Printf("Configuration updated: %s\n", configFile)
	case get != "":
		cfg, err := config.Load(configFile)
		if err != nil {
			cli.ExitWithError("Failed to load config: %v", err)
		}
		value, err := getValue(cfg, get)
		if err != nil {
			cli.ExitWithError("Failed to get config value: %v", err)
		}
		fmt.Println(value)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func initConfig(configFile string) error {
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configFile)
	}
	return config.Default().Save(configFile)
}

// field addresses one settable value of the configuration.
type field struct {
	ints  func(*config.Config) *int
	bools func(*config.Config) *bool
}

var fields = map[string]field{
	"unification.max_steps":      {ints: func(c *config.Config) *int { return &c.Unification.MaxSteps }},
	"unification.max_iterations": {ints: func(c *config.Config) *int { return &c.Unification.MaxIterations }},
	"unification.max_frontier":   {ints: func(c *config.Config) *int { return &c.Unification.MaxFrontier }},
	"unification.max_solutions":  {ints: func(c *config.Config) *int { return &c.Unification.MaxSolutions }},
	"reduction.max_steps":        {ints: func(c *config.Config) *int { return &c.Reduction.MaxSteps }},
	"verbose":                    {bools: func(c *config.Config) *bool { return &c.Verbose }},
	"debug":                      {bools: func(c *config.Config) *bool { return &c.Debug }},
}

func keyNames() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getValue(cfg *config.Config, key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown key: %s", key)
	}
	if f.ints != nil {
		return strconv.Itoa(*f.ints(cfg)), nil
	}
	return strconv.FormatBool(*f.bools(cfg)), nil
}

func setValue(cfg *config.Config, keyValue string) error {
	key, value, ok := strings.Cut(keyValue, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", keyValue)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	if f.ints != nil {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*f.ints(cfg) = n
	} else {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*f.bools(cfg) = b
	}
	return cfg.Validate()
}

func setConfigValue(configFile, keyValue string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := setValue(cfg, keyValue); err != nil {
		return err
	}
	return cfg.Save(configFile)
}

func showConfig(w io.Writer, cfg *config.Config, jsonOutput bool) error {
	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintln(w, "Unification:")
	fmt.Fprintf(w, "  Max Steps: %d\n", cfg.Unification.MaxSteps)
	fmt.Fprintf(w, "  Max Iterations: %d\n", cfg.Unification.MaxIterations)
	fmt.Fprintf(w, "  Max Frontier: %d\n", cfg.Unification.MaxFrontier)
	fmt.Fprintf(w, "  Max Solutions: %d\n\n", cfg.Unification.MaxSolutions)

	fmt.Fprintln(w, "Reduction:")
	fmt.Fprintf(w, "  Max Steps: %d\n\n", cfg.Reduction.MaxSteps)

	fmt.Fprintf(w, "Verbose: %t\n", cfg.Verbose)
	fmt.Fprintf(w, "Debug: %t\n", cfg.Debug)
	return nil
}
