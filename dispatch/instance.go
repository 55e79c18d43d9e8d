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

package dispatch

import (
	"fmt"
	"net"
	"strconv"
)

// InstanceString builds the per-connection instance suffix (spec §4.1
// scenarios C/D):
//   - IPv4: "{nr}-{a.b.c.d}:{localPort}-{a.b.c.d}:{remotePort}"
//   - IPv6: same form if both addresses are v4-mapped (::ffff:0:0/96),
//     otherwise "{nr}-{localV6}:{lp}-{remoteV6}:{rp}"
//   - UNIX: "{nr}-{peerPid}-{peerUid}" via SO_PEERCRED (see PeerCred)
func InstanceString(nr uint64, local, remote net.Addr) string {
	lt, lok := local.(*net.TCPAddr)
	rt, rok := remote.(*net.TCPAddr)
	if lok && rok {
		return fmt.Sprintf("%d-%s:%d-%s:%d", nr, ipString(lt.IP), lt.Port, ipString(rt.IP), rt.Port)
	}

	if lu, ok := local.(*net.UnixAddr); ok {
		_ = lu
		if cred, ok := remote.(PeerCred); ok {
			return fmt.Sprintf("%d-%d-%d", nr, cred.Pid, cred.Uid)
		}
	}

	return fmt.Sprintf("%d-%s-%s", nr, local.String(), remote.String())
}

// ipString renders ip the way instance naming wants it: a v4-mapped v6
// address collapses to its dotted-quad form (scenario D), any other v6
// address keeps its full textual form.
func ipString(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

// PeerCred is a net.Addr-shaped carrier for SO_PEERCRED credentials on a
// UNIX domain socket, used by InstanceString's UNIX branch.
type PeerCred struct {
	Pid int
	Uid int
}

func (PeerCred) Network() string { return "unixcred" }
func (c PeerCred) String() string {
	return strconv.Itoa(c.Pid) + "-" + strconv.Itoa(c.Uid)
}
