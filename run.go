// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"os"

	"emperror.dev/emperror"
	"github.com/spf13/pflag"
	"github.com/xmidt-org/edgestream/config"
	"github.com/xmidt-org/edgestream/ingest"
	"github.com/xmidt-org/edgestream/stream"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const stdinName = "-"

type inputIn struct {
	fx.In
	Flags *pflag.FlagSet
	LC    fx.Lifecycle
}

func provideInput(in inputIn) (io.Reader, error) {
	path, _ := in.Flags.GetString("records")
	if len(path) == 0 || path == stdinName {
		return os.Stdin, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, emperror.WrapWith(err, "failed to open records", "path", path)
	}
	in.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return f.Close()
		},
	})
	return f, nil
}

type ingesterIn struct {
	fx.In
	Flags   *pflag.FlagSet
	Builder stream.Builder
	Logger  *zap.Logger
	Edge    config.Edge
}

func provideIngester(in ingesterIn) *ingest.Ingester {
	var opts []ingest.Option
	if emit, _ := in.Flags.GetBool("emit"); emit {
		opts = append(opts, ingest.WithOutput(os.Stdout))
	}
	return ingest.New(in.Builder, in.Logger, in.Edge, opts...)
}

type runIn struct {
	fx.In
	LC         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Ingester   *ingest.Ingester
	Input      io.Reader
	Logger     *zap.Logger
}

// runIngest validates the input once the application starts and shuts the
// application down when the input is exhausted. Stopping early cancels the run.
func runIngest(in runIn) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	in.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if _, err := in.Ingester.Run(ctx, in.Input); err != nil {
					in.Logger.Error("ingest failed", zap.Error(err))
					code = 1
				}
				if err := in.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					in.Logger.Error("failed to shut down", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
