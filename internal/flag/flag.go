// Package flag registers cobra flags whose default values fall back to
// environment variables, preserving the env-driven invocation style the
// probe scripts are run with (PORT_TO_CHECK, NAMESPACE, ...).
package flag

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

func StringVar(flags *pflag.FlagSet, output *string, flagName string, envVarName string, defaultValue string, usage string) {
	flags.StringVar(output, flagName, stringEnvVar(envVarName, defaultValue), withEnvHint(usage, envVarName))
}

func BoolVar(flags *pflag.FlagSet, output *bool, flagName string, envVarName string, defaultValue bool, usage string) error {
	dval, err := boolEnvVar(envVarName, defaultValue)
	// set flag in spite of error, caller can decide whether to ignore and go with default or not
	flags.BoolVar(output, flagName, dval, withEnvHint(usage, envVarName))
	return err
}

func IntVar(flags *pflag.FlagSet, output *int, flagName string, envVarName string, defaultValue int, usage string) error {
	dval, err := intEnvVar(envVarName, defaultValue)
	// set flag in spite of error, caller can decide whether to ignore and go with default or not
	flags.IntVar(output, flagName, dval, withEnvHint(usage, envVarName))
	return err
}

func MultiStringVar(flags *pflag.FlagSet, output *[]string, flagName string, envVarName string, defaultValue []string, usage string) {
	flags.StringSliceVar(output, flagName, multiStringEnvVar(envVarName, defaultValue), withEnvHint(usage, envVarName))
}

func withEnvHint(usage string, envVarName string) string {
	if envVarName == "" {
		return usage
	}
	return fmt.Sprintf("%s (can also be set via %s)", usage, envVarName)
}

func intEnvVar(name string, defaultValue int) (int, error) {
	if svalue, ok := os.LookupEnv(name); ok {
		value, err := strconv.Atoi(svalue)
		if err != nil {
			return defaultValue, fmt.Errorf("bad value for %q: %s", name, err)
		}
		return value, nil
	}
	return defaultValue, nil
}

func boolEnvVar(name string, defaultValue bool) (bool, error) {
	if svalue, ok := os.LookupEnv(name); ok {
		value, err := strconv.ParseBool(svalue)
		if err != nil {
			return defaultValue, fmt.Errorf("bad value for %q: %s", name, err)
		}
		return value, nil
	}
	return defaultValue, nil
}

func stringEnvVar(name string, defaultValue string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	return defaultValue
}

func multiStringEnvVar(name string, defaultValue []string) []string {
	if value, ok := os.LookupEnv(name); ok {
		return strings.Split(value, ",")
	}
	return defaultValue
}
