// Package config fills command flags from an optional YAML config file and
// EXPLOITGPT_* environment variables.
package config

import (
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "EXPLOITGPT"

// Bind sets every flag of cmd that was not given on the command line from
// the config file at path or the environment. Local flags are keyed by the
// command path without the root, e.g. collect.cve.page-size, and inherited
// flags by their bare name. A missing config file is not an error unless
// required is set.
func Bind(cmd *cobra.Command, path string, required bool) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return errors.Wrapf(err, "read config %s", path)
			}
		} else if required || !os.IsNotExist(err) {
			return errors.Wrapf(err, "stat %s", path)
		}
	}

	prefix := strings.Join(strings.Fields(cmd.CommandPath())[1:], ".")
	local := cmd.LocalNonPersistentFlags()

	var errs error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "config" || f.Name == "help" {
			return
		}
		key := f.Name
		if prefix != "" && local.Lookup(f.Name) != nil {
			key = prefix + "." + f.Name
		}
		if !v.IsSet(key) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(key)); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "set --%s from %s", f.Name, key))
		}
	})
	return errs
}
