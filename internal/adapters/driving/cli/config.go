package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change values in config.toml. Keys are dotted paths such as
chunking.size or vectorstore.backend. Secrets (API keys, DSNs, AWS keys)
are read from the environment or a .env file and never stored here.`,
}

var configGetCmd = &cobra.Command{
	Use:         "get <key>",
	Short:       "Print a configuration value",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needsKey: needsConfig},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Stores a value. Integers and booleans are stored typed; a value
containing commas is stored as a list.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{needsKey: needsConfig},
	RunE:        runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:         "list",
	Short:       "Print every stored value",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsKey: needsConfig},
	RunE:        runConfigList,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the embedding and LLM providers",
	Long:  `Builds each configured AI provider and checks that it is reachable.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	value, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Println(formatValue(value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	key, value := args[0], parseValue(args[1])
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, formatValue(value))
	return nil
}

// keyLister is implemented by stores that can enumerate their keys.
type keyLister interface {
	Keys() []string
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	lister, ok := configStore.(keyLister)
	if !ok {
		return fmt.Errorf("config store cannot list keys")
	}

	keys := lister.Keys()
	sort.Strings(keys)
	cmd.Printf("# %s\n", configStore.Path())
	for _, k := range keys {
		v, _ := configStore.Get(k)
		cmd.Printf("%s = %s\n", k, formatValue(v))
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if bootstrap == nil {
		return notConfigured("config check")
	}
	checks, err := bootstrap.Checks(cmd.Context(), configDir)
	if err != nil {
		return err
	}

	failed := 0
	for _, c := range checks {
		if c.Err != nil {
			failed++
			cmd.Printf("  FAIL  %-9s %s/%s: %v\n", c.Component, c.Provider, c.Model, c.Err)
			continue
		}
		cmd.Printf("  OK    %-9s %s/%s\n", c.Component, c.Provider, c.Model)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d providers failed validation", failed, len(checks))
	}
	return nil
}

// parseValue converts a command-line value to the type stored in TOML.
func parseValue(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if strings.Contains(raw, ",") {
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	}
	return raw
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
