package kafka

import "time"

// ProducerOption configures a Producer.
type ProducerOption func(*producerOptions)

type producerOptions struct {
	brokers      []string
	compression  string
	requiredAcks int
	maxAttempts  int
	writeTimeout time.Duration
	readTimeout  time.Duration
	batchSize    int
	batchBytes   int
	batchTimeout time.Duration
	async        bool
	hashByKey    bool
}

func defaultProducerOptions() producerOptions {
	return producerOptions{
		compression:  "gzip",
		requiredAcks: -1,
		maxAttempts:  3,
		writeTimeout: 10 * time.Second,
		readTimeout:  10 * time.Second,
		batchSize:    100,
		batchBytes:   1 << 20,
		batchTimeout: time.Second,
	}
}

// WithBrokers sets the broker addresses.
func WithBrokers(brokers []string) ProducerOption {
	return func(o *producerOptions) {
		o.brokers = brokers
	}
}

// WithCompression selects the compression codec by name
// (gzip, snappy, lz4, zstd). Unknown names fall back to gzip.
func WithCompression(name string) ProducerOption {
	return func(o *producerOptions) {
		if name != "" {
			o.compression = name
		}
	}
}

// WithRequiredAcks sets the acknowledgement level: 0 none, 1 leader,
// anything else waits for all in-sync replicas.
func WithRequiredAcks(acks int) ProducerOption {
	return func(o *producerOptions) {
		o.requiredAcks = acks
	}
}

// WithMaxAttempts bounds writer retries per batch.
func WithMaxAttempts(n int) ProducerOption {
	return func(o *producerOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBatchSize sets the message count that triggers a flush.
func WithBatchSize(n int) ProducerOption {
	return func(o *producerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchBytes sets the byte threshold that triggers a flush.
func WithBatchBytes(n int) ProducerOption {
	return func(o *producerOptions) {
		if n > 0 {
			o.batchBytes = n
		}
	}
}

// WithBatchTimeout sets how long a partial batch may linger before it
// is flushed anyway.
func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if d > 0 {
			o.batchTimeout = d
		}
	}
}

// WithTimeouts sets the writer's write and read timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if write > 0 {
			o.writeTimeout = write
		}
		if read > 0 {
			o.readTimeout = read
		}
	}
}

// WithAsync makes Publish fire-and-forget. Write errors are then only
// visible through the producer metrics.
func WithAsync(async bool) ProducerOption {
	return func(o *producerOptions) {
		o.async = async
	}
}

// WithHashByKey routes messages with equal keys to the same partition,
// which keeps per-instrument ordering intact for downstream consumers.
func WithHashByKey(hash bool) ProducerOption {
	return func(o *producerOptions) {
		o.hashByKey = hash
	}
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	brokers    []string
	groupID    string
	workers    int
	bufferSize int
	retryMax   int
	backoffMin time.Duration
	backoffMax time.Duration
	dlqTopic   string
	minBytes   int
	maxBytes   int
}

func defaultConsumerOptions() consumerOptions {
	return consumerOptions{
		groupID:    "default",
		workers:    1,
		bufferSize: 10,
		retryMax:   3,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		minBytes:   10e3,
		maxBytes:   10e6,
	}
}

// WithConsumerBrokers sets the broker addresses.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(o *consumerOptions) {
		o.brokers = brokers
	}
}

// WithConsumerGroupID sets the consumer group.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(o *consumerOptions) {
		if groupID != "" {
			o.groupID = groupID
		}
	}
}

// WithConsumerWorkers sets the number of handler goroutines.
func WithConsumerWorkers(n int) ConsumerOption {
	return func(o *consumerOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithConsumerBufferSize sets the capacity of the channel between the
// topic readers and the workers. A full channel stalls the readers,
// which is the backpressure path.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(o *consumerOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithConsumerRetry sets the retry budget per message and the jittered
// backoff range between attempts.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if max >= 0 {
			o.retryMax = max
		}
		if backoffMin > 0 {
			o.backoffMin = backoffMin
		}
		if backoffMax > 0 {
			o.backoffMax = backoffMax
		}
	}
}

// WithConsumerDLQ names the topic that receives messages whose retry
// budget is exhausted. Empty disables the dead letter queue.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(o *consumerOptions) {
		o.dlqTopic = topic
	}
}

// WithConsumerFetch sets the fetch size bounds per broker request.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(o *consumerOptions) {
		if minBytes > 0 {
			o.minBytes = minBytes
		}
		if maxBytes > 0 {
			o.maxBytes = maxBytes
		}
	}
}
