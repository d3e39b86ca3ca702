// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// provideMetrics sets up the prometheus registry the packages declare their metrics against.
func provideMetrics() fx.Option {
	return fx.Options(
		touchstone.Provide(),
		fx.Provide(
			func(v *viper.Viper) (c touchstone.Config, err error) {
				err = v.UnmarshalKey("prometheus", &c)
				return
			},
		),
	)
}
