// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

func setupFlagSet(fs *pflag.FlagSet) {
	fs.StringP("file", "f", "", "the configuration file to use.  Overrides the search path.")
	fs.BoolP("debug", "d", false, "enables debug logging.  Overrides configuration.")
	fs.BoolP("version", "v", false, "print version and exit")
	fs.StringP("records", "r", "-", "newline delimited json records to validate, - for stdin")
	fs.BoolP("emit", "e", false, "write accepted records, defaults filled in, to stdout")
}

func setup(args []string) (*viper.Viper, *pflag.FlagSet, *zap.Logger, error) {
	l, err := zap.NewDevelopment() // initial value
	if err != nil {
		return nil, nil, l, fmt.Errorf("failed to create zap logger: %w", err)
	}

	fs := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	setupFlagSet(fs)
	err = fs.Parse(args)
	if err != nil {
		return nil, fs, l, fmt.Errorf("failed to parse args: %w", err)
	}
	if printVersion, _ := fs.GetBool("version"); printVersion {
		printVersionInfo(os.Stdout)
		os.Exit(0)
	}

	v := viper.New()

	// the environment alone is a complete configuration, so a missing file is only
	// an error when one was asked for explicitly.
	if file, _ := fs.GetString("file"); len(file) > 0 {
		v.SetConfigFile(file)
		err = v.ReadInConfig()
	} else {
		v.SetConfigName(applicationName)
		v.AddConfigPath(fmt.Sprintf("/etc/%s", applicationName))
		v.AddConfigPath(fmt.Sprintf("$HOME/.%s", applicationName))
		v.AddConfigPath(".")
		err = v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			err = nil
		}
	}
	if err != nil {
		return v, fs, l, fmt.Errorf("failed to read config file: %w", err)
	}

	if !v.IsSet("logging") {
		return v, fs, l, nil
	}

	if debug, _ := fs.GetBool("debug"); debug {
		v.Set("logging.level", "DEBUG")
	}

	var c sallust.Config
	err = v.UnmarshalKey("logging", &c, arrange.ComposeDecodeHooks(sallust.DecodeHook))
	if err != nil {
		return v, fs, l, err
	}

	l, err = c.Build()
	return v, fs, l, err
}

func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "%s:\n", applicationName)
	fmt.Fprintf(w, "  version: \t%s\n", Version)
	fmt.Fprintf(w, "  go version: \t%s\n", runtime.Version())
	fmt.Fprintf(w, "  built time: \t%s\n", BuildTime)
	fmt.Fprintf(w, "  git commit: \t%s\n", GitCommit)
	fmt.Fprintf(w, "  os/arch: \t%s/%s\n", runtime.GOOS, runtime.GOARCH)
}
