// Package control holds the single mutex and the three condition
// variables shared between PlayerControl and DecoderControl. Both
// packages depend on this one rather than on each other, since the
// player constructs a DecoderControl and hands it this same Lock by
// reference.
package control

import "sync"

// Lock bundles the shared mutex with the three logical wait queues
// built on top of it. DecoderControl.client_cond is not a fourth
// cond variable — it is an alias for PlayerCond, so the decoder
// signals the exact same queue a client posting a command would.
type Lock struct {
	Mu sync.Mutex

	// PlayerCond is where the player thread waits. Clients signal it
	// after posting a player command; the decoder thread also signals
	// it (as DecoderControl.client_cond) to wake the player after
	// reaching a safe observation point or after producing chunks.
	PlayerCond *sync.Cond

	// ClientCond is where command-issuing client threads wait for
	// their synchronous command to be acknowledged. Only the player
	// thread signals it.
	ClientCond *sync.Cond

	// DecoderCond is where the decoder thread waits, both for a new
	// command and for buffer back-pressure to clear. Only the player
	// thread signals it.
	DecoderCond *sync.Cond
}

// New creates a Lock with all three condition variables sharing one
// mutex.
func New() *Lock {
	l := &Lock{}
	l.PlayerCond = sync.NewCond(&l.Mu)
	l.ClientCond = sync.NewCond(&l.Mu)
	l.DecoderCond = sync.NewCond(&l.Mu)
	return l
}
