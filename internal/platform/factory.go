package platform

import (
	"github.com/aretw0/journal/pkg/core"
)

// New wires a store and the journal service around it.
//
//	svc, err := journal.New("./data/reflections.json", journal.WithOrder(core.NewestFirst))
//
// The URI argument is adapter-specific (see Init).
func New(uri string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	var svcOpts []core.ServiceOption
	if o.policy != nil {
		svcOpts = append(svcOpts, core.WithPolicy(*o.policy))
	}
	if o.logger != nil {
		svcOpts = append(svcOpts, core.WithServiceLogger(o.logger))
	}
	if o.metrics != nil {
		svcOpts = append(svcOpts, core.WithSubmissionObserver(o.metrics.Submission))
	}

	return core.NewService(repo, svcOpts...), nil
}
