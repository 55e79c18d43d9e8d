/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package unit is component A of the engine (SPEC_FULL.md §A), the
// SocketUnit state machine: the top-level controller that integrates
// PortSet (package port), OptionApplier (package sockopt),
// ConnectionDispatcher (package dispatch) and StateSerializer (package
// serialize) against the external EventLoop/ProcessSpawner/ManifestLoader/
// ServiceUnit seams (package collab).
package unit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	libcollab "github.com/nabbar/sockunit/collab"
	libdispatch "github.com/nabbar/sockunit/dispatch"
	libduration "github.com/nabbar/sockunit/duration"
	libmapcloser "github.com/nabbar/sockunit/ioutils/mapcloser"
	liblogger "github.com/nabbar/sockunit/logger"
	libport "github.com/nabbar/sockunit/port"
)

// ErrInvalidConfig is returned by Verify for any of the spec §6
// "Verification failures" conditions.
var ErrInvalidConfig = errors.New("unit: invalid configuration")

// ErrUnitVanished surfaces a dead companion-service weak reference on
// start() (spec §5: "the engine must tolerate the service being unloaded
// and surface UnitVanished on start()").
var ErrUnitVanished = errors.New("unit: companion service vanished")

// Config is the manifest surface this package is responsible for (spec §6,
// trimmed of keys already owned by OpenContext/sockopt.Options — those are
// folded into OpenContext before Verify builds it). Struct tags let
// LoadConfig decode it straight out of a *viper.Viper, the way the teacher
// decodes its own manifest-shaped config blocks.
type Config struct {
	ID   string              `mapstructure:"id"`
	Open libport.OpenContext `mapstructure:"open"`

	Accept         bool `mapstructure:"accept"`
	MaxConnections int  `mapstructure:"max_connections"`

	SendSigkill bool                 `mapstructure:"send_sigkill"`
	TimeoutUsec libduration.Duration `mapstructure:"timeout_usec"`

	User  string `mapstructure:"user"`
	Group string `mapstructure:"group"`

	// ServiceName is the companion template service's unit name (spec
	// §4.1: "ManifestLoader.loadUnit(templateServiceName)"); Triggers is
	// the shared-descriptor mode's set of units a readiness event starts
	// (spec §4.1 "Shared-descriptor branch").
	ServiceName string   `mapstructure:"service_name"`
	Triggers    []string `mapstructure:"triggers"`

	// ExplicitService is true when the manifest binds this socket to a
	// concrete (non-template) Service= unit rather than letting Accept=yes
	// instantiate one per connection — invalid in combination (spec §6).
	ExplicitService bool `mapstructure:"explicit_service"`
}

// Unit is the aggregate described in spec §3.
type Unit struct {
	mu sync.Mutex

	id     string
	state  State
	result Result

	ports      libport.Set
	dispatcher *libdispatch.Dispatcher

	commands map[Phase][]*ExecStep

	controlPID        int
	controlCommand    *ExecStep
	controlCommandIdx int
	controlPhase      Phase
	lastChildResult   Result

	timerHandle uint64
	timerArmed  bool

	maxConnections int
	accept         bool

	sendSigkill bool
	timeoutUsec time.Duration

	user  string
	group string

	serviceName     string
	triggers        []string
	explicitService bool
	startPending    map[string]bool

	loop     libcollab.EventLoop
	spawner  libcollab.ProcessSpawner
	manifest libcollab.ManifestLoader
	service  libcollab.ServiceUnit

	openCtx libport.OpenContext

	tmpDir        string
	varTmpDir     string
	scratchCloser libmapcloser.Closer

	log liblogger.Logger
}

// New constructs a Unit in state Dead (spec §3: "Initial = Dead"), wired
// against its external collaborators.
func New(cfg Config, ports libport.Set, loop libcollab.EventLoop, spawner libcollab.ProcessSpawner, manifest libcollab.ManifestLoader, accepter libdispatch.Accepter) *Unit {
	u := &Unit{
		id:              cfg.ID,
		state:           Dead,
		result:          Success,
		ports:           ports,
		commands:        map[Phase][]*ExecStep{},
		maxConnections:  cfg.MaxConnections,
		accept:          cfg.Accept,
		sendSigkill:     cfg.SendSigkill,
		timeoutUsec:     cfg.TimeoutUsec.TimeDuration(),
		user:            cfg.User,
		group:           cfg.Group,
		serviceName:     cfg.ServiceName,
		triggers:        cfg.Triggers,
		explicitService: cfg.ExplicitService,
		startPending:    map[string]bool{},
		loop:            loop,
		spawner:         spawner,
		manifest:        manifest,
		openCtx:         cfg.Open,
		log:             liblogger.New("sockunit").With(liblogger.Fields{"unit": cfg.ID}),
	}
	u.dispatcher = libdispatch.New(accepter, u.maxConnections, cfg.ID)
	return u
}

// SetCommands installs the ordered ExecStep sequence for phase (normally
// done once at load time from the manifest's ExecStart* lists).
func (u *Unit) SetCommands(phase Phase, steps []*ExecStep) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.commands[phase] = steps
}

// SetService attaches the companion ServiceUnit this unit triggers on
// readiness/acceptance (spec §3: "service — weak reference to the
// companion ServiceUnit").
func (u *Unit) SetService(svc libcollab.ServiceUnit) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.service = svc
}

func (u *Unit) ID() string { return u.id }

// SubState reports the current internal state name (spec: "subState()").
func (u *Unit) SubState() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.String()
}

// State exposes the raw 13-state value for tests and introspection.
func (u *Unit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Result exposes the last recorded result.
func (u *Unit) Result() Result {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.result
}

// NAccepted exposes the monotonic accepted-connection counter (owned by the
// Dispatcher, which is the only place it advances — spec §4.4).
func (u *Unit) NAccepted() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dispatcher.NAccepted()
}

// NConnections exposes the live per-connection count.
func (u *Unit) NConnections() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dispatcher.NConnections()
}

// Verify implements load-time verification (spec §6 "Verification
// failures"): missing Listen*, Accept=yes with non-acceptable ports,
// Accept=yes with MaxConnections<=0, Accept=yes with an explicit service
// binding, PAMName with KillMode != control-group (PAM/KillMode are out of
// this package's scope — ProcessGroupRealizer's caller is responsible for
// that check before constructing a Unit).
func (u *Unit) Verify() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	ports := u.ports.Ports()
	if len(ports) == 0 {
		return fmt.Errorf("%w: no Listen* configured", ErrInvalidConfig)
	}

	if u.accept {
		for _, p := range ports {
			if p.Kind != libport.KindSocket || !p.Addr.Type.Acceptable() {
				return fmt.Errorf("%w: Accept=yes requires every port to be an acceptable socket", ErrInvalidConfig)
			}
		}
		if u.maxConnections <= 0 {
			return fmt.Errorf("%w: Accept=yes requires MaxConnections > 0", ErrInvalidConfig)
		}
		if u.explicitService {
			return fmt.Errorf("%w: Accept=yes cannot be combined with an explicit service binding", ErrInvalidConfig)
		}
	}

	return nil
}
