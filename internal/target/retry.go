package target

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"google.golang.org/api/googleapi"
)

// Backoff strategies understood by NewRetryTarget.
const (
	BackoffExponential = "exponential"
	BackoffLinear      = "linear"
)

const (
	retryBaseDelay = 100 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// RetryTarget retries transient store errors of the wrapped Target.
type RetryTarget struct {
	inner      Target
	maxRetries int
	backoff    string
}

// NewRetryTarget wraps inner so that every operation is attempted up to
// maxRetries+1 times. Unknown backoff names fall back to exponential.
func NewRetryTarget(inner Target, maxRetries int, backoff string) Target {
	if backoff != BackoffLinear {
		backoff = BackoffExponential
	}
	return &RetryTarget{inner: inner, maxRetries: maxRetries, backoff: backoff}
}

func (r *RetryTarget) Name() string {
	return r.inner.Name()
}

// Put retries only when body can be rewound.
func (r *RetryTarget) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) error {
	seeker, ok := body.(io.Seeker)
	if !ok {
		return r.inner.Put(ctx, key, body, opts)
	}
	_, err := retry(ctx, r, func() (struct{}, error) {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, fmt.Errorf("%w: %v", errNoRewind, err)
		}
		return struct{}{}, r.inner.Put(ctx, key, body, opts)
	})
	return err
}

type getResult struct {
	rc   io.ReadCloser
	meta ObjectMeta
}

func (r *RetryTarget) Get(ctx context.Context, key string) (io.ReadCloser, ObjectMeta, error) {
	res, err := retry(ctx, r, func() (getResult, error) {
		rc, meta, err := r.inner.Get(ctx, key)
		return getResult{rc, meta}, err
	})
	return res.rc, res.meta, err
}

func (r *RetryTarget) Delete(ctx context.Context, key string) error {
	_, err := retry(ctx, r, func() (struct{}, error) {
		return struct{}{}, r.inner.Delete(ctx, key)
	})
	return err
}

func (r *RetryTarget) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return retry(ctx, r, func() ([]ObjectInfo, error) {
		return r.inner.List(ctx, prefix)
	})
}

var errNoRewind = errors.New("request body cannot be rewound for retry")

// retry runs op until it succeeds, fails permanently, or runs out of
// attempts. The last error is returned.
func retry[T any](ctx context.Context, r *RetryTarget, op func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := op()
		if err == nil || !isTransient(err) || attempt >= r.maxRetries {
			return v, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}
}

// delay returns the pause before retry attempt+1, jittered by up to 25%
// either way.
func (r *RetryTarget) delay(attempt int) time.Duration {
	d := retryBaseDelay * time.Duration(attempt+1)
	if r.backoff == BackoffExponential {
		d = retryBaseDelay << min(attempt, 20)
	}
	d = min(d, retryMaxDelay)
	return d - d/4 + rand.N(d/2+1)
}

// statusCode extracts the HTTP status of an Azure, AWS or Google response
// error.
func statusCode(err error) (int, bool) {
	var azErr *azcore.ResponseError
	if errors.As(err, &azErr) {
		return azErr.StatusCode, true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, true
	}
	var awsErr interface{ HTTPStatusCode() int }
	if errors.As(err, &awsErr) {
		return awsErr.HTTPStatusCode(), true
	}
	return 0, false
}

// isTransient reports whether err may succeed on retry. Missing objects,
// cancellation, unrewindable bodies and client errors other than 408 and
// 429 are final. Errors without a status, such as connection resets, are
// retried.
func isTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound), errors.Is(err, errNoRewind):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	code, ok := statusCode(err)
	if !ok {
		return true
	}
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 400 && code < 500:
		return false
	}
	return true
}
