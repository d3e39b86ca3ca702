// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type LoadIn struct {
	fx.In
	Viper  *viper.Viper
	Logger *zap.Logger
}

// LoadOut splits the configuration into its groups so components can depend on
// only the group they need.
type LoadOut struct {
	fx.Out
	Config      Config
	Credentials Credentials
	Edge        Edge
	Learning    Learning
}

// Provide loads the configuration once and makes every group available to the container.
// A load failure stops the application from starting.
func Provide() fx.Option {
	return fx.Provide(
		func(in LoadIn) (LoadOut, error) {
			c, err := Load(in.Viper)
			if err != nil {
				in.Logger.Error("configuration rejected", zap.Error(err))
				return LoadOut{}, err
			}

			in.Logger.Info("configuration loaded",
				zap.Stringer("credentials", c.Credentials),
				zap.String("node_id", c.Edge.NodeID),
				zap.Int("batch_size", c.Edge.BatchSize),
				zap.Duration("max_processing_time", c.Edge.MaxProcessingDuration()),
				zap.Duration("health_check_interval", c.Edge.HealthCheckPeriod()),
				zap.Float64("learning_rate", c.Learning.LearningRate),
				zap.Float64("discount_factor", c.Learning.DiscountFactor),
				zap.Float64("exploration_rate", c.Learning.ExplorationRate),
				zap.Int("memory_capacity", c.Learning.MemoryCapacity),
			)

			return LoadOut{
				Config:      c,
				Credentials: c.Credentials,
				Edge:        c.Edge,
				Learning:    c.Learning,
			}, nil
		},
	)
}
