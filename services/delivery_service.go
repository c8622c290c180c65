package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const plainTextContentType = "text/plain;charset=utf-8"

var ErrBeaconRejected = errors.New("beacon not accepted")

// Transport hands a serialized payload to the spreadsheet web app.
type Transport interface {
	Deliver(ctx context.Context, body []byte) error
}

// NewWebAppClient returns a client that never follows redirects. The web app
// answers a successful POST with a redirect to a host we cannot read from.
func NewWebAppClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func newPlainTextRequest(ctx context.Context, endpoint string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	// text/plain keeps the request "simple", the web app cannot answer a preflight.
	req.Header.Set("Content-Type", plainTextContentType)
	return req, nil
}

// ReadableTransport posts the payload and inspects the response.
type ReadableTransport struct {
	Endpoint string
	Client   *http.Client
}

func (t *ReadableTransport) Deliver(ctx context.Context, body []byte) error {
	req, err := newPlainTextRequest(ctx, t.Endpoint, body)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach web app")
	}
	defer resp.Body.Close()

	logger := log.WithFields(log.Fields{"strategy": "readable", "status": resp.StatusCode})

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if title := htmlTitle(resp); title != "" {
			logger = logger.WithField("page", title)
		}
		logger.Debug("Web app accepted payload")
		return nil
	case isOpaque(req, resp):
		logger.WithField("location", resp.Header.Get("Location")).Debug("Opaque web app response treated as delivered")
		return nil
	default:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

// isOpaque reports a redirect to another origin, whose body this client
// cannot see.
func isOpaque(req *http.Request, resp *http.Response) bool {
	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return false
	}
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil || location.Host == "" {
		return false
	}
	return !strings.EqualFold(location.Host, req.URL.Host)
}

// htmlTitle returns the page title of an HTML response, if any.
func htmlTitle(resp *http.Response) string {
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// BlindTransport posts the payload and ignores whatever comes back.
type BlindTransport struct {
	Endpoint string
	Client   *http.Client
}

func (t *BlindTransport) Deliver(ctx context.Context, body []byte) error {
	req, err := newPlainTextRequest(ctx, t.Endpoint, body)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach web app")
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()

	log.WithFields(log.Fields{"strategy": "blind", "status": resp.StatusCode}).Debug("Payload sent without reading response")
	return nil
}

// Beacon queues a payload for transmission without waiting for it. Send
// reports only whether the payload was accepted for sending.
type Beacon interface {
	Send(body []byte) bool
}

type BeaconTransport struct {
	Beacon Beacon
}

func (t *BeaconTransport) Deliver(_ context.Context, body []byte) error {
	if t.Beacon == nil || !t.Beacon.Send(body) {
		return ErrBeaconRejected
	}
	log.WithField("strategy", "beacon").Debug("Payload handed to beacon")
	return nil
}

// EscalatingTransport tries each strategy only after the previous one failed.
type EscalatingTransport struct {
	Readable Transport
	Blind    Transport
	Beacon   Transport
}

// Deliver returns nil on the first strategy that succeeds. When all fail the
// error of the blind attempt is returned, or the readable one if the blind
// attempt has none.
func (t *EscalatingTransport) Deliver(ctx context.Context, body []byte) error {
	readableErr := t.Readable.Deliver(ctx, body)
	if readableErr == nil {
		return nil
	}
	log.WithError(readableErr).Warn("Readable delivery failed, retrying without reading the response")

	var blindErr error
	if t.Blind != nil {
		if blindErr = t.Blind.Deliver(ctx, body); blindErr == nil {
			return nil
		}
		log.WithError(blindErr).Warn("Blind delivery failed, falling back to beacon")
	}

	if t.Beacon != nil {
		err := t.Beacon.Deliver(ctx, body)
		if err == nil {
			return nil
		}
		log.WithError(err).Warn("Beacon delivery failed")
	}

	if blindErr != nil {
		return blindErr
	}
	return readableErr
}

// QueueBeacon accepts payloads into a bounded queue drained by a background
// worker that posts them to the web app.
type QueueBeacon struct {
	queue     chan []byte
	transport Transport
	timeout   time.Duration
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewQueueBeacon(transport Transport, size int, timeout time.Duration) *QueueBeacon {
	if size <= 0 {
		size = 1
	}
	b := &QueueBeacon{
		queue:     make(chan []byte, size),
		transport: transport,
		timeout:   timeout,
		done:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Send refuses the payload once the beacon is closed.
func (b *QueueBeacon) Send(body []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.queue <- body:
		return true
	default:
		return false
	}
}

func (b *QueueBeacon) run() {
	defer close(b.done)
	for body := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := b.transport.Deliver(ctx, body); err != nil {
			log.WithError(err).Error("Queued beacon delivery failed")
		}
		cancel()
	}
}

// Close stops accepting payloads and waits for the queue to drain.
func (b *QueueBeacon) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}
