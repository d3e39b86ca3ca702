// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"emperror.dev/emperror"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Environment variables read by Load.
const (
	ProjectIDEnv    = "FIREBASE_PROJECT_ID"
	PrivateKeyIDEnv = "FIREBASE_PRIVATE_KEY_ID"
	PrivateKeyEnv   = "FIREBASE_PRIVATE_KEY"
	ClientEmailEnv  = "FIREBASE_CLIENT_EMAIL"
	ClientIDEnv     = "FIREBASE_CLIENT_ID"

	NodeIDEnv              = "EDGE_NODE_ID"
	MaxProcessingTimeEnv   = "MAX_PROCESSING_TIME"
	BatchSizeEnv           = "BATCH_SIZE"
	HealthCheckIntervalEnv = "HEALTH_CHECK_INTERVAL"

	LearningRateEnv    = "RL_LEARNING_RATE"
	DiscountFactorEnv  = "RL_DISCOUNT_FACTOR"
	ExplorationRateEnv = "RL_EXPLORATION_RATE"
	MemoryCapacityEnv  = "RL_MEMORY_CAPACITY"
)

// Configuration keys, usable from a config file as well.
const (
	projectIDKey    = "firebase.project_id"
	privateKeyIDKey = "firebase.private_key_id"
	privateKeyKey   = "firebase.private_key"
	clientEmailKey  = "firebase.client_email"
	clientIDKey     = "firebase.client_id"

	nodeIDKey              = "edge.node_id"
	maxProcessingTimeKey   = "edge.max_processing_time"
	batchSizeKey           = "edge.batch_size"
	healthCheckIntervalKey = "edge.health_check_interval"

	learningRateKey    = "rl.learning_rate"
	discountFactorKey  = "rl.discount_factor"
	explorationRateKey = "rl.exploration_rate"
	memoryCapacityKey  = "rl.memory_capacity"
)

const (
	DefaultNodeID              = "edge_01"
	DefaultMaxProcessingTime   = 5
	DefaultBatchSize           = 100
	DefaultHealthCheckInterval = 60

	DefaultLearningRate    = 0.001
	DefaultDiscountFactor  = 0.95
	DefaultExplorationRate = 0.1
	DefaultMemoryCapacity  = 10000
)

// maxSeconds is the largest second count that still fits in a time.Duration.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// ErrIncompleteCredentials is returned by Load when a mandatory credential is missing.
var ErrIncompleteCredentials = errors.New("firebase configuration incomplete")

type binding struct {
	key      string
	env      string
	fallback interface{}
}

var bindings = []binding{
	{key: projectIDKey, env: ProjectIDEnv, fallback: ""},
	{key: privateKeyIDKey, env: PrivateKeyIDEnv, fallback: ""},
	{key: privateKeyKey, env: PrivateKeyEnv, fallback: ""},
	{key: clientEmailKey, env: ClientEmailEnv, fallback: ""},
	{key: clientIDKey, env: ClientIDEnv, fallback: ""},

	{key: nodeIDKey, env: NodeIDEnv, fallback: DefaultNodeID},
	{key: maxProcessingTimeKey, env: MaxProcessingTimeEnv, fallback: DefaultMaxProcessingTime},
	{key: batchSizeKey, env: BatchSizeEnv, fallback: DefaultBatchSize},
	{key: healthCheckIntervalKey, env: HealthCheckIntervalEnv, fallback: DefaultHealthCheckInterval},

	{key: learningRateKey, env: LearningRateEnv, fallback: DefaultLearningRate},
	{key: discountFactorKey, env: DiscountFactorEnv, fallback: DefaultDiscountFactor},
	{key: explorationRateKey, env: ExplorationRateEnv, fallback: DefaultExplorationRate},
	{key: memoryCapacityKey, env: MemoryCapacityEnv, fallback: DefaultMemoryCapacity},
}

// Credentials holds what is needed to authenticate against firebase.
type Credentials struct {
	ProjectID    string
	PrivateKeyID string

	// PrivateKey has every escaped \n sequence replaced with a real newline.
	PrivateKey  string
	ClientEmail string
	ClientID    string
}

// Validate returns true if and only if the project id, private key and client email are all set.
func (c Credentials) Validate() bool {
	return len(c.missing()) == 0
}

func (c Credentials) missing() []string {
	var m []string
	if len(c.ProjectID) == 0 {
		m = append(m, ProjectIDEnv)
	}
	if len(c.PrivateKey) == 0 {
		m = append(m, PrivateKeyEnv)
	}
	if len(c.ClientEmail) == 0 {
		m = append(m, ClientEmailEnv)
	}
	return m
}

// String omits the private key so credentials can be logged.
func (c Credentials) String() string {
	key := "<unset>"
	if len(c.PrivateKey) > 0 {
		key = "<redacted>"
	}
	return fmt.Sprintf("{ProjectID:%s PrivateKeyID:%s PrivateKey:%s ClientEmail:%s ClientID:%s}",
		c.ProjectID, c.PrivateKeyID, key, c.ClientEmail, c.ClientID)
}

// Edge configures the local edge node.
type Edge struct {
	NodeID string

	// MaxProcessingTime and HealthCheckInterval are in seconds.
	MaxProcessingTime   int
	BatchSize           int
	HealthCheckInterval int
}

func (e Edge) MaxProcessingDuration() time.Duration {
	return time.Duration(e.MaxProcessingTime) * time.Second
}

func (e Edge) HealthCheckPeriod() time.Duration {
	return time.Duration(e.HealthCheckInterval) * time.Second
}

// Learning holds the reinforcement learning hyperparameters.
type Learning struct {
	LearningRate    float64
	DiscountFactor  float64
	ExplorationRate float64
	MemoryCapacity  int
}

// Config is the complete, read-only configuration of a process.
type Config struct {
	Credentials Credentials
	Edge        Edge
	Learning    Learning
}

// Load reads every configuration group from v. The environment takes precedence over
// whatever v already holds from a config file, which takes precedence over defaults.
// The returned error wraps ErrIncompleteCredentials when a mandatory credential is missing.
func Load(v *viper.Viper) (Config, error) {
	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return Config{}, emperror.WrapWith(err, "failed to bind environment variable", "env", b.env)
		}
		v.SetDefault(b.key, b.fallback)
	}

	var (
		c Config
		p = parser{v: v}
	)

	c.Credentials = Credentials{
		ProjectID:    v.GetString(projectIDKey),
		PrivateKeyID: v.GetString(privateKeyIDKey),
		PrivateKey:   strings.ReplaceAll(v.GetString(privateKeyKey), `\n`, "\n"),
		ClientEmail:  v.GetString(clientEmailKey),
		ClientID:     v.GetString(clientIDKey),
	}

	c.Edge = Edge{
		NodeID:              v.GetString(nodeIDKey),
		MaxProcessingTime:   p.seconds(maxProcessingTimeKey, MaxProcessingTimeEnv),
		BatchSize:           p.integer(batchSizeKey, BatchSizeEnv),
		HealthCheckInterval: p.seconds(healthCheckIntervalKey, HealthCheckIntervalEnv),
	}

	c.Learning = Learning{
		LearningRate:    p.float(learningRateKey, LearningRateEnv),
		DiscountFactor:  p.float(discountFactorKey, DiscountFactorEnv),
		ExplorationRate: p.float(explorationRateKey, ExplorationRateEnv),
		MemoryCapacity:  p.integer(memoryCapacityKey, MemoryCapacityEnv),
	}

	if p.err != nil {
		return Config{}, p.err
	}

	if missing := c.Credentials.missing(); len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: missing %s", ErrIncompleteCredentials, strings.Join(missing, ", "))
	}

	return c, nil
}

// parser keeps the first coercion failure so Load can report it once.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) raw(key string) interface{} {
	r := p.v.Get(key)
	if s, ok := r.(string); ok {
		return strings.TrimSpace(s)
	}
	return r
}

func (p *parser) integer(key, env string) int {
	if p.err != nil {
		return 0
	}
	raw := p.raw(key)
	i, err := toInt(raw)
	if err != nil {
		p.err = emperror.WrapWith(err, "failed to parse "+env+" as an integer", "key", key, "value", raw)
	}
	return i
}

// seconds is integer, bounded so the value converts to a time.Duration without overflow.
func (p *parser) seconds(key, env string) int {
	i := p.integer(key, env)
	if p.err == nil && (int64(i) > maxSeconds || int64(i) < -maxSeconds) {
		p.err = emperror.WrapWith(
			fmt.Errorf("%d seconds overflows a duration", i),
			"failed to parse "+env+" as a number of seconds", "key", key, "value", i,
		)
		return 0
	}
	return i
}

// toInt reads strings as base 10, so a leading zero is not taken as an octal prefix.
// Typed values from a config file go through cast.
func toInt(raw interface{}) (int, error) {
	if s, ok := raw.(string); ok {
		i, err := strconv.ParseInt(s, 10, 0)
		return int(i), err
	}
	return cast.ToIntE(raw)
}

func (p *parser) float(key, env string) float64 {
	if p.err != nil {
		return 0
	}
	raw := p.raw(key)
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		p.err = emperror.WrapWith(err, "failed to parse "+env+" as a float", "key", key, "value", raw)
	}
	return f
}
