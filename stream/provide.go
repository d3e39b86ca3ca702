// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type BuilderIn struct {
	fx.In
	Logger   *zap.Logger
	Measures Measures
	Options  []Option `optional:"true"`
}

// Provide makes an instrumented, logging Builder available to the container.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			func(in BuilderIn) Builder {
				return NewLoggingBuilder(in.Logger,
					NewInstrumentingBuilder(in.Measures, NewFactory(in.Options...)))
			},
		),
	)
}
