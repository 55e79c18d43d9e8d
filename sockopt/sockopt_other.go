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

//go:build !linux

package sockopt

import "fmt"

type applier struct{}

// New returns a no-op Applier outside Linux; every non-zero option warns
// once rather than being silently dropped.
func New() Applier {
	return applier{}
}

func (applier) ApplySocket(fd int, opt Options, isIPv6 bool, warn Warn) error {
	warnUnsupported(opt, warn)
	return nil
}

func (applier) ApplyFifo(fd int, opt Options, warn Warn) error {
	if opt.PipeSize > 0 && warn != nil {
		warn("pipeSize", fmt.Errorf("sockopt: F_SETPIPE_SZ not supported on this platform"))
	}
	if opt.SmackLabel != "" && warn != nil {
		warn("smackLabel", fmt.Errorf("sockopt: SMACK labelling not supported on this platform"))
	}
	return nil
}

func warnUnsupported(opt Options, warn Warn) {
	if warn == nil {
		return
	}
	unsupported := map[string]bool{
		"keepAlive":       opt.KeepAlive,
		"broadcast":       opt.Broadcast,
		"passCredentials": opt.PassCredentials,
		"passSecurity":    opt.PassSecurity,
		"priority":        opt.Priority != 0,
		"receiveBuffer":   opt.ReceiveBuffer > 0,
		"sendBuffer":      opt.SendBuffer > 0,
		"mark":            opt.Mark != 0,
		"ipTos":           opt.IPTOS != 0,
		"reusePort":       opt.ReusePort,
		"ipTtl":           opt.IPTTL != 0,
		"tcpCongestion":   opt.TCPCongestion != "",
		"smackLabelIPIn":  opt.SmackLabelIPIn != "",
		"smackLabelIPOut": opt.SmackLabelIPOut != "",
	}
	for name, set := range unsupported {
		if set {
			warn(name, fmt.Errorf("sockopt: %s not supported on this platform", name))
		}
	}
}
