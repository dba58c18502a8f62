// Package tcp contains the ingress stage accepting raw CAN frames over TCP.
// Every connection is a session with its own frame assembler.
package tcp

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal/stage"
	"github.com/cockroachdb/errors"
)

type Stage struct {
	*stage.Ingress[*Message, worker, *workerArgs, *worker]

	cfg *Config

	mux  sync.Mutex
	addr net.Addr
}

func NewStage(outputConnector connector.Writer[*Message], cfg *Config) *Stage {
	return &Stage{
		Ingress: stage.NewIngress[*Message, worker, *workerArgs](
			"tcp", outputConnector, cfg.Config,
		),

		cfg: cfg,
	}
}

func (s *Stage) Init(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return errors.Wrap(err, "tcp")
	}

	address := net.JoinHostPort(s.cfg.Host, strconv.Itoa(int(s.cfg.Port)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "tcp: listen on %s", address)
	}

	s.mux.Lock()
	s.addr = listener.Addr()
	s.mux.Unlock()

	return s.Ingress.Init(ctx, &workerArgs{listener: listener, cfg: s.cfg})
}

// Addr returns the address the stage listens on, nil before Init.
func (s *Stage) Addr() net.Addr {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.addr
}
