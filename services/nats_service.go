package services

import (
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type NATSService struct {
	conn    *nats.Conn
	subject string
}

func NewNATSService(url, subject string) (*NATSService, error) {
	conn, err := nats.Connect(url, nats.Name("nup-registration"))
	if err != nil {
		return nil, err
	}
	log.Infof("Connected to NATS at %s", url)
	return &NATSService{conn: conn, subject: subject}, nil
}

// Send publishes the payload on the beacon subject. Publishing only buffers
// the message, so true means "accepted", not "stored".
func (n *NATSService) Send(body []byte) bool {
	if n == nil || n.conn == nil || !n.conn.IsConnected() {
		return false
	}
	if err := n.conn.Publish(n.subject, body); err != nil {
		log.WithError(err).WithField("subject", n.subject).Warn("NATS beacon publish failed")
		return false
	}
	return true
}

func (n *NATSService) Close() {
	if n.conn != nil {
		n.conn.Drain()
	}
}
