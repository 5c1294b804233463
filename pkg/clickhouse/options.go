package clickhouse

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type options struct {
	host         string
	port         int
	database     string
	user         string
	password     string
	maxOpen      int
	maxIdle      int
	connLifetime time.Duration
	dialTimeout  time.Duration
	readTimeout  time.Duration
	useHTTP      bool
	asyncInsert  bool
	waitForAsync bool
	maxExecTime  time.Duration
}

func defaultOptions() options {
	return options{
		port:         9000,
		user:         "default",
		maxOpen:      10,
		maxIdle:      5,
		connLifetime: 5 * time.Minute,
		dialTimeout:  5 * time.Second,
		readTimeout:  10 * time.Second,
	}
}

// dsn renders the clickhouse-go connection string. write_timeout is
// deliberately absent: older servers reject it as a setting.
func (o options) dsn() string {
	scheme := "clickhouse"
	if o.useHTTP {
		scheme = "clickhouse+http"
	}

	q := url.Values{}
	if o.dialTimeout > 0 {
		q.Set("dial_timeout", o.dialTimeout.String())
	}
	if o.readTimeout > 0 {
		q.Set("read_timeout", o.readTimeout.String())
	}
	if o.maxExecTime > 0 {
		q.Set("max_execution_time", strconv.Itoa(int(o.maxExecTime.Seconds())))
	}
	if o.asyncInsert {
		q.Set("async_insert", "1")
		if o.waitForAsync {
			q.Set("wait_for_async_insert", "1")
		}
	}

	user := url.User(o.user)
	if o.password != "" {
		user = url.UserPassword(o.user, o.password)
	}
	u := url.URL{
		Scheme:   scheme,
		User:     user,
		Host:     fmt.Sprintf("%s:%d", o.host, o.port),
		Path:     "/" + o.database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Option configures the client.
type Option func(*options)

// WithHost sets the server host.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithPort sets the server port.
func WithPort(port int) Option {
	return func(o *options) {
		if port > 0 {
			o.port = port
		}
	}
}

// WithDatabase sets the database queries run against.
func WithDatabase(database string) Option {
	return func(o *options) { o.database = database }
}

// WithCredentials sets the login.
func WithCredentials(user, password string) Option {
	return func(o *options) {
		if user != "" {
			o.user = user
		}
		o.password = password
	}
}

// WithMaxConnections bounds the pool.
func WithMaxConnections(maxOpen, maxIdle int) Option {
	return func(o *options) {
		o.maxOpen = maxOpen
		o.maxIdle = maxIdle
	}
}

// WithTimeouts sets the dial and read timeouts.
func WithTimeouts(dial, read time.Duration) Option {
	return func(o *options) {
		if dial > 0 {
			o.dialTimeout = dial
		}
		if read > 0 {
			o.readTimeout = read
		}
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) Option {
	return func(o *options) { o.useHTTP = useHTTP }
}

// WithAsyncInsert enables server-side insert batching, optionally waiting
// for the batch to flush before acknowledging.
func WithAsyncInsert(enabled, wait bool) Option {
	return func(o *options) {
		o.asyncInsert = enabled
		o.waitForAsync = wait
	}
}

// WithMaxExecutionTime caps per-query execution on the server.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(o *options) { o.maxExecTime = d }
}
