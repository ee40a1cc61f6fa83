// Package broker implements the shared-resource protocol that lets many
// independent consumers share one lazily-initialized embedding provider:
// an asynchronous request/response/broadcast message vocabulary, a
// coordinator owning the provider state machine, and a client proxy that
// correlates responses to requests.
package broker

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Kind tags a protocol message. Requests carry a caller-generated
// correlation id which the matching response echoes; broadcasts carry no id
// and fan out to every connected consumer.
type Kind string

const (
	// Request kinds.
	KindInit       Kind = "init"
	KindEmbed      Kind = "embed"
	KindStatus     Kind = "status"
	KindDisconnect Kind = "disconnect"

	// Response kinds, mirroring the requests.
	KindInitResult       Kind = "init_result"
	KindEmbedResult      Kind = "embed_result"
	KindStatusResult     Kind = "status_result"
	KindDisconnectResult Kind = "disconnect_result"

	// Broadcast kinds.
	KindProgress Kind = "progress"
	KindReady    Kind = "ready"
	KindError    Kind = "error"
)

// IsBroadcast reports whether the kind is one of the broadcast family.
func (k Kind) IsBroadcast() bool {
	return k == KindProgress || k == KindReady || k == KindError
}

// Status is the coordinator's self-description returned by a status
// request.
type Status struct {
	Ready     bool `json:"ready"`
	Loading   bool `json:"loading"`
	Progress  int  `json:"progress"`
	Consumers int  `json:"consumers"`
}

// Message is the protocol envelope. Which payload fields are meaningful
// depends on Kind.
type Message struct {
	// ID is the correlation id. Set on requests and echoed on the
	// matching response; empty on broadcasts.
	ID   string `json:"id,omitempty"`
	Kind Kind   `json:"kind"`

	// Texts is the embed request payload.
	Texts []string `json:"texts,omitempty"`

	// Vectors is the embed response payload.
	Vectors [][]float32 `json:"vectors,omitempty"`

	// Status is the status response payload.
	Status *Status `json:"status,omitempty"`

	// Error carries the human-readable reason on failed responses and
	// on error broadcasts.
	Error string `json:"error,omitempty"`

	// Progress is the load percentage on progress broadcasts.
	Progress int `json:"progress,omitempty"`
}

// NewCorrelationID generates a request correlation id from the current
// timestamp plus a short random suffix. Uniqueness is probabilistic, not
// guaranteed; a collision under very high request rates is an acknowledged
// risk of the protocol.
func NewCorrelationID() string {
	return fmt.Sprintf("%x-%04x", time.Now().UnixNano(), rand.IntN(1<<16))
}
