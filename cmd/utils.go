package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replacer = strings.NewReplacer(".", "_", "-", "_")

type argType interface {
	string | bool | int | time.Duration | []string
}

func envName[T argType](cfg boundEnvVar[T]) string {
	if cfg.Env != nil {
		return *cfg.Env
	}
	return strings.ToUpper(replacer.Replace(cfg.Name))
}

// bindEnvMap registers one persistent flag per entry. The current value of the bound variable
// (config file or struct default) is the flag default unless the environment overrides it.
func bindEnvMap[T argType](cmd *cobra.Command, m map[*T]boundEnvVar[T]) {
	for v, cfg := range m {
		env := envName(cfg)
		desc := fmt.Sprintf("[%s] %s", env, cfg.Description)
		_ = viper.BindEnv(cfg.Name, env)
		_, fromEnv := os.LookupEnv(env)
		flags := cmd.PersistentFlags()
		short := ""
		if cfg.Short != nil {
			short = *cfg.Short
		}

		switch vt := any(v).(type) {
		case *string:
			def := *vt
			if fromEnv {
				def = viper.GetString(cfg.Name)
			}
			flags.StringVarP(vt, cfg.Name, short, def, desc)
		case *bool:
			def := *vt
			if fromEnv {
				def = viper.GetBool(cfg.Name)
			}
			flags.BoolVarP(vt, cfg.Name, short, def, desc)
		case *int:
			def := *vt
			if fromEnv {
				def = viper.GetInt(cfg.Name)
			}
			if cfg.Count {
				flags.CountVarP(vt, cfg.Name, short, desc)
				_ = flags.Lookup(cfg.Name).Value.Set(strconv.Itoa(def))
			} else {
				flags.IntVarP(vt, cfg.Name, short, def, desc)
			}
		case *time.Duration:
			def := *vt
			if fromEnv {
				def = viper.GetDuration(cfg.Name)
			}
			flags.DurationVarP(vt, cfg.Name, short, def, desc)
		case *[]string:
			def := *vt
			if fromEnv {
				def = splitList(os.Getenv(env))
			}
			flags.StringSliceVarP(vt, cfg.Name, short, def, desc)
		default:
			log.Panicf("command-args parsing error: unhandled default case for type %T", vt)
		}

		_ = viper.BindPFlag(cfg.Name, flags.Lookup(cfg.Name))
		if cfg.Hidden {
			_ = flags.MarkHidden(cfg.Name)
		}
	}
}

// splitList parses a comma separated environment value the way the flag form is parsed.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
