/*
Copyright © 2026 the IonMC authors.
This file is part of IonMC.

IonMC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IonMC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IonMC.  If not, see <http://www.gnu.org/licenses/>.
*/

package parallel

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"gonum.org/v1/gonum/floats"
)

// RPCPort is the default port for collective RPC communication.
var RPCPort = "6061"

// Empty is used for passing content-less messages.
type Empty struct{}

// ReduceArgs carries one rank's contribution to a sum-reduction.
type ReduceArgs struct {
	Gen int // collective generation, for lockstep checking
	Buf []float64
}

// FetchArgs requests the broadcast buffer of a generation.
type FetchArgs struct {
	Gen int
}

// FetchReply carries a broadcast buffer back to a rank.
type FetchReply struct {
	Buf []float64
}

// Collective is the RPC service hosted by rank 0 of an RPCGroup. It
// should not be interacted with directly, but it is exported to meet
// RPC requirements.
type Collective struct {
	size int

	mu   sync.Mutex
	cond *sync.Cond

	gen      int // generation currently being reduced
	contribs int
	sum      []float64

	bcastGen int // generation whose broadcast buffer is available
	bcast    []float64
}

func newCollective(size int) *Collective {
	c := &Collective{size: size, gen: 0, bcastGen: -1}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Reduce accumulates one remote rank's contribution to the current
// generation. It meets the requirements for use with rpc.Call.
func (s *Collective) Reduce(args *ReduceArgs, _ *Empty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if args.Gen != s.gen {
		return fmt.Errorf("parallel: reduce generation mismatch: got %d, expected %d", args.Gen, s.gen)
	}
	if s.sum == nil {
		s.sum = make([]float64, len(args.Buf))
	}
	if len(args.Buf) != len(s.sum) {
		return fmt.Errorf("parallel: reduce buffer length mismatch between ranks: %d != %d",
			len(args.Buf), len(s.sum))
	}
	floats.Add(s.sum, args.Buf)
	s.contribs++
	s.cond.Broadcast()
	return nil
}

// Fetch blocks until the broadcast buffer of the requested generation
// is available and returns it. It meets the requirements for use with
// rpc.Call.
func (s *Collective) Fetch(args *FetchArgs, reply *FetchReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.bcastGen < args.Gen {
		s.cond.Wait()
	}
	if s.bcastGen != args.Gen {
		return fmt.Errorf("parallel: broadcast generation %d no longer available (now %d)",
			args.Gen, s.bcastGen)
	}
	reply.Buf = make([]float64, len(s.bcast))
	copy(reply.Buf, s.bcast)
	return nil
}

// RPCGroup is a Group whose ranks are separate processes communicating
// over net/rpc. Rank 0 hosts the Collective service; the other ranks
// dial it.
type RPCGroup struct {
	rank, size int
	gen        int

	srv    *Collective // rank 0 only
	client *rpc.Client // other ranks only
}

// NewRPCRoot creates rank 0 of a group of the given size and starts
// serving the collective on port. The returned group is ready for
// collective calls; workers may dial at any time.
func NewRPCRoot(size int, port string) (*RPCGroup, error) {
	g := &RPCGroup{rank: 0, size: size, srv: newCollective(size)}
	if err := rpc.Register(g.srv); err != nil {
		return nil, fmt.Errorf("parallel: registering collective: %v", err)
	}
	rpc.HandleHTTP()
	l, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("parallel: listening on port %s: %v", port, err)
	}
	go http.Serve(l, nil)
	return g, nil
}

// DialRPCGroup connects rank (> 0) of a group of the given size to the
// root at rootAddr, retrying with exponential backoff while the root
// starts up.
func DialRPCGroup(rank, size int, rootAddr, port string) (*RPCGroup, error) {
	if rank <= 0 || rank >= size {
		return nil, fmt.Errorf("parallel: rank %d out of range for group of %d", rank, size)
	}
	g := &RPCGroup{rank: rank, size: size}
	err := backoff.RetryNotify(
		func() error {
			client, err := rpc.DialHTTP("tcp", rootAddr+":"+port)
			if err != nil {
				return fmt.Errorf("parallel: while dialing %v: %v", rootAddr, err)
			}
			g.client = client
			return nil
		},
		backoff.NewExponentialBackOff(),
		func(err error, d time.Duration) {
			log.Printf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Rank returns this member's rank.
func (g *RPCGroup) Rank() int { return g.rank }

// Size returns the number of ranks in the group.
func (g *RPCGroup) Size() int { return g.size }

// ReduceSum implements Group.
func (g *RPCGroup) ReduceSum(send, recv []float64) error {
	if g.rank != 0 {
		return g.client.Call("Collective.Reduce", &ReduceArgs{Gen: g.gen, Buf: send}, &Empty{})
	}

	s := g.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(recv) != len(send) {
		return fmt.Errorf("parallel: reduce buffer length mismatch: %d != %d", len(send), len(recv))
	}
	if s.sum == nil {
		s.sum = make([]float64, len(send))
	}
	floats.Add(s.sum, send)
	s.contribs++
	for s.contribs < s.size {
		s.cond.Wait()
	}
	copy(recv, s.sum)
	s.sum = nil
	s.contribs = 0
	return nil
}

// Bcast implements Group.
func (g *RPCGroup) Bcast(buf []float64) error {
	if g.rank != 0 {
		reply := new(FetchReply)
		if err := g.client.Call("Collective.Fetch", &FetchArgs{Gen: g.gen}, reply); err != nil {
			return err
		}
		if len(reply.Buf) != len(buf) {
			return fmt.Errorf("parallel: broadcast buffer length mismatch: %d != %d",
				len(reply.Buf), len(buf))
		}
		copy(buf, reply.Buf)
		g.gen++
		return nil
	}

	s := g.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bcast = make([]float64, len(buf))
	copy(s.bcast, buf)
	s.bcastGen = g.gen
	s.gen++
	g.gen++
	s.cond.Broadcast()
	return nil
}

// Close shuts down a worker's connection to the root. It is a no-op on
// rank 0.
func (g *RPCGroup) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
