// Package stage contains the generic shells of the pipeline stages.
// A shell moves messages between the connectors and the worker pool of a stage.
package stage

import (
	"github.com/anand2532/SAE-J1939-parser/internal/message"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
)

type msg = message.Message

type ingressWorkerPtr[W, WArgs, M any] = pool.IngressWorkerPtr[W, WArgs, M]
type handlerWorkerPtr[W, WArgs, MIn, MOut any] = pool.HandlerWorkerPtr[W, WArgs, MIn, MOut]
type egressWorkerPtr[W, WArgs, M any] = pool.EgressWorkerPtr[W, WArgs, M]
