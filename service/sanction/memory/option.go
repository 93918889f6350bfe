package memory

import (
	"github.com/veriflow/lifecycle/service/dao"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/messaging"
	"github.com/veriflow/lifecycle/service/sanction"
)

type Option func(*service)

// WithStore swaps the sanction store, e.g. for the afs-backed fs DAO.
func WithStore(store dao.Store[string, sanction.Sanction]) Option {
	return func(s *service) { s.sanctions = store }
}

// WithQueue attaches the queue sanction events are published to.
func WithQueue(queue messaging.Queue[event.Event[sanction.Sanction]]) Option {
	return func(s *service) { s.events = queue }
}
