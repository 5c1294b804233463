package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler consumes messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerHook observes handler execution and may rewrite the context
// or payload first. A non-nil error from BeforeHandle skips the
// handler and sends the message down the error path.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

type fetched struct {
	topic string
	msg   kafka.Message
}

// Consumer fans messages from one reader per topic out to a fixed
// worker pool. Offsets are committed only after a message is handled
// or parked on the dead letter topic, so an unclean shutdown
// redelivers rather than loses.
type Consumer struct {
	opts     consumerOptions
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	hook     ConsumerHook
	dlq      *kafka.Writer

	msgCh  chan fetched
	stop   chan struct{}
	cancel context.CancelFunc

	readerWG sync.WaitGroup
	workerWG sync.WaitGroup
	stopOnce sync.Once

	mu         sync.Mutex
	partSerial map[string]map[int]*sync.Mutex
}

// NewConsumer builds a consumer for the given brokers. At least one
// broker is required; everything else has working defaults.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	o := defaultConsumerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}

	consumerMetricsInit.Do(registerConsumerMetrics)

	c := &Consumer{
		opts:       o,
		handlers:   make(map[string]MessageHandler),
		readers:    make(map[string]*kafka.Reader),
		hook:       NoopHook{},
		msgCh:      make(chan fetched, o.bufferSize),
		stop:       make(chan struct{}),
		partSerial: make(map[string]map[int]*sync.Mutex),
	}
	if o.dlqTopic != "" {
		// Hash balancer so parked messages keep their key placement
		// and can be replayed in per-key order.
		c.dlq = &kafka.Writer{Addr: kafka.TCP(o.brokers...), Balancer: &kafka.Hash{}}
	}
	return c, nil
}

// RegisterHandler binds a handler to its topic. Call before Start;
// registration is not synchronized with the running pool.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, dup := c.handlers[topic]; dup {
		log.Printf("kafka consumer: duplicate handler for %s ignored", topic)
		return
	}
	c.handlers[topic] = h
}

// WithConsumerHook installs a hook around handler execution. Call
// before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens a reader per registered topic and launches the worker
// pool.
func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.opts.brokers,
			Topic:    topic,
			GroupID:  c.opts.groupID,
			MinBytes: c.opts.minBytes,
			MaxBytes: c.opts.maxBytes,
			// A group without committed offsets starts at the newest
			// messages instead of replaying the retained backlog.
			StartOffset: kafka.LastOffset,
		})
	}

	for i := 0; i < c.opts.workers; i++ {
		c.workerWG.Add(1)
		go c.worker()
	}
	for topic, r := range c.readers {
		c.readerWG.Add(1)
		go c.readLoop(ctx, topic, r)
	}

	log.Printf("kafka consumer: started, topics=%d workers=%d", len(c.readers), c.opts.workers)
	return nil
}

// Stop drains the consumer: readers first, then workers, then the
// readers' connections. The context bounds how long each wait may
// take.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		log.Println("kafka consumer: stopping")
		close(c.stop)
		if c.cancel != nil {
			c.cancel()
		}
		if stopErr = waitBounded(ctx, &c.readerWG); stopErr != nil {
			return
		}
		// Readers are parked, so nothing sends anymore and the channel
		// can close. Workers drain what is buffered and exit.
		close(c.msgCh)
		if stopErr = waitBounded(ctx, &c.workerWG); stopErr != nil {
			return
		}
		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				log.Printf("kafka consumer: close reader %s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("kafka consumer: close dlq writer: %v", err)
			}
		}
		log.Println("kafka consumer: stopped")
	})
	return stopErr
}

func waitBounded(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka consumer: shutdown wait: %w", ctx.Err())
	}
}

func (c *Consumer) readLoop(ctx context.Context, topic string, r *kafka.Reader) {
	defer c.readerWG.Done()

	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			log.Printf("kafka consumer: fetch %s: %v", topic, err)
			select {
			case <-time.After(time.Second):
			case <-c.stop:
				return
			}
			continue
		}

		// A full channel stalls the fetch loop here, which is the
		// backpressure path when workers fall behind.
		select {
		case c.msgCh <- fetched{topic: topic, msg: km}:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgCh)))
			consumerQueueFullness.WithLabelValues(topic).Set(float64(len(c.msgCh)) / float64(cap(c.msgCh)))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.workerWG.Done()
	for f := range c.msgCh {
		c.process(f.topic, f.msg)
	}
}

func (c *Consumer) process(topic string, km kafka.Message) {
	handler, ok := c.handlers[topic]
	if !ok {
		return
	}

	// One in-flight message per partition keeps intra-partition order
	// even with a shared worker pool.
	serial := c.partitionLock(topic, km.Partition)
	serial.Lock()
	defer serial.Unlock()

	start := time.Now()
	err := c.handleWithRetry(handler, topic, km)
	parked := false
	if err != nil {
		c.hook.OnError(context.Background(), topic, km, km.Value, err)
		log.Printf("kafka consumer: %s handler failed after %d attempts: %v", topic, c.opts.retryMax+1, err)
		parked = c.parkOnDLQ(topic, km, err)
	}
	// Commit on success, and after parking so the group does not
	// replay a poison message on restart.
	if err == nil || parked {
		c.commit(topic, km)
	}
	consumerHandleLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) handleWithRetry(h MessageHandler, topic string, km kafka.Message) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.handleOnce(h, topic, km)
		if err == nil || attempt >= c.opts.retryMax {
			return err
		}
		c.hook.OnError(context.Background(), topic, km, km.Value, err)
		select {
		case <-time.After(jitterBackoff(c.opts.backoffMin, c.opts.backoffMax, attempt+1)):
		case <-c.stop:
			return err
		}
	}
}

// handleOnce runs one attempt. A panicking handler is converted into
// an error so it burns retry budget and lands on the DLQ like any
// other failure.
func (c *Consumer) handleOnce(h MessageHandler, topic string, km kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	ctx, hkm, data, err := c.hook.BeforeHandle(context.Background(), topic, km, km.Value)
	if err != nil {
		return err
	}
	err = h.Handle(ctx, data)
	c.hook.AfterHandle(ctx, topic, hkm, data, err)
	return err
}

func (c *Consumer) parkOnDLQ(topic string, km kafka.Message, cause error) bool {
	if c.dlq == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.opts.dlqTopic,
		Key:   km.Key,
		Value: km.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		log.Printf("kafka consumer: dlq write for %s: %v", topic, err)
		return false
	}
	return true
}

func (c *Consumer) commit(topic string, km kafka.Message) {
	r := c.readers[topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(jitterBackoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	log.Printf("kafka consumer: commit %s: %v", topic, err)
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := c.partSerial[topic]
	if parts == nil {
		parts = make(map[int]*sync.Mutex)
		c.partSerial[topic] = parts
	}
	l := parts[partition]
	if l == nil {
		l = &sync.Mutex{}
		parts[partition] = l
	}
	return l
}

// jitterBackoff doubles from min up to max and subtracts up to half as
// jitter so retrying consumers spread out.
func jitterBackoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min << uint(attempt-1)
	if d <= 0 || d > max {
		d = max
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}

var (
	consumerMetricsInit   sync.Once
	consumerQueueDepth    *prometheus.GaugeVec
	consumerQueueFullness *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "newsedge_kafka_consumer_queue_depth",
		Help: "Messages waiting for a worker.",
	}, []string{"topic"})
	consumerQueueFullness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "newsedge_kafka_consumer_queue_fullness",
		Help: "Worker queue utilization from 0 to 1.",
	}, []string{"topic"})
	consumerHandleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "newsedge_kafka_consumer_handle_seconds",
		Help: "Per-message handling time including retries.",
	}, []string{"topic"})
}
