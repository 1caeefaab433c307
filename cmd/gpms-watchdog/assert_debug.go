//go:build debug

package main

import (
	"github.com/gordian-engine/gpms/gassert"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	assertRuleFlag  = "g-assert-rules"
	assertBuildType = "debug"
)

func addAssertRuleFlag(fs *pflag.FlagSet) {
	// Default to all rules.
	fs.String(assertRuleFlag, "*", "Comma-separated assertion rules. Only available in debug builds. See package docs for github.com/gordian-engine/gpms/gassert.")
}

func getAssertEnv(v *viper.Viper) (gassert.Env, error) {
	return gassert.EnvironmentFromString(v.GetString(assertRuleFlag))
}
