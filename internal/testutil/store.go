package testutil

import (
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/remote"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// ErrInjected is returned by FakeStore for keys marked with FailKey.
var ErrInjected = fmt.Errorf("injected failure")

// FakeObject is an object held by FakeStore.
type FakeObject struct {
	Body         []byte
	ContentType  string
	CacheControl string
	ACL          s3types.ObjectACL
	ETag         string
	LastModified time.Time
}

// StoreCall records one mutating call made against FakeStore.
type StoreCall struct {
	Op     string
	Bucket string
	Key    string
}

// FakeStore is an in-memory remote.Store with MD5 ETags and failure injection.
type FakeStore struct {
	mu       sync.Mutex
	buckets  map[string]map[string]*FakeObject
	failures map[string]int
	calls    []StoreCall

	inflight    int
	maxInflight int

	// Delay is slept inside every Put and Delete
	Delay time.Duration

	// ListErr is returned by List when set
	ListErr error

	// WebsiteErr is returned by Website when set
	WebsiteErr error
}

// NewFakeStore creates a store holding the named empty buckets.
func NewFakeStore(buckets ...string) *FakeStore {
	f := &FakeStore{
		buckets:  make(map[string]map[string]*FakeObject),
		failures: make(map[string]int),
	}
	for _, b := range buckets {
		f.buckets[b] = make(map[string]*FakeObject)
	}
	return f
}

// Seed stores an object directly, bypassing failure injection and call recording.
func (f *FakeStore) Seed(bucket, key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.buckets[bucket] == nil {
		f.buckets[bucket] = make(map[string]*FakeObject)
	}
	f.buckets[bucket][key] = newFakeObject(body)
}

// FailKey makes the next times Put or Delete calls for key fail.
// A negative count fails every call.
func (f *FakeStore) FailKey(key string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = times
}

// Object returns the object stored at key.
func (f *FakeStore) Object(bucket, key string) (*FakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.buckets[bucket][key]
	return obj, ok
}

// Keys returns every key in bucket, sorted.
func (f *FakeStore) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.buckets[bucket]))
	for k := range f.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns the mutating calls made so far.
func (f *FakeStore) Calls() []StoreCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StoreCall(nil), f.calls...)
}

// CallCount returns how many mutating calls touched key.
func (f *FakeStore) CallCount(key string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Key == key {
			n++
		}
	}
	return n
}

// MaxInflight returns the highest number of concurrent Put and Delete calls observed.
func (f *FakeStore) MaxInflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

// Put implements remote.Store.
func (f *FakeStore) Put(ctx context.Context, in *remote.PutInput) error {
	if err := f.begin("put", in.Bucket, in.Key); err != nil {
		return errors.NewObjectError("upload", in.Bucket, in.Key, err)
	}
	defer f.end()

	f.mu.Lock()
	defer f.mu.Unlock()

	obj := newFakeObject(in.Body)
	obj.ContentType = in.ContentType
	obj.CacheControl = in.CacheControl
	obj.ACL = in.ACL
	f.buckets[in.Bucket][in.Key] = obj
	return nil
}

// Delete implements remote.Store.
func (f *FakeStore) Delete(ctx context.Context, bucket, key string) error {
	if err := f.begin("delete", bucket, key); err != nil {
		return errors.NewObjectError("delete", bucket, key, err)
	}
	defer f.end()

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.buckets[bucket], key)
	return nil
}

// List implements remote.Store.
func (f *FakeStore) List(ctx context.Context, bucket, prefix string) ([]*s3types.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	objs, ok := f.buckets[bucket]
	if !ok {
		return nil, errors.NewBucketError("list", bucket, errors.ErrBucketNotFound)
	}

	var files []*s3types.RemoteFile
	for key, obj := range objs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		files = append(files, &s3types.RemoteFile{
			Key:          key,
			Size:         int64(len(obj.Body)),
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	return files, nil
}

// Website implements remote.Store.
func (f *FakeStore) Website(ctx context.Context, bucket, region string) (*s3types.SiteDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WebsiteErr != nil {
		return nil, f.WebsiteErr
	}
	if _, ok := f.buckets[bucket]; !ok {
		return nil, errors.NewBucketError("website", bucket, errors.ErrBucketNotFound)
	}
	if region == "" {
		region = s3types.DefaultRegion
	}
	return &s3types.SiteDescriptor{
		Bucket:        bucket,
		Region:        region,
		URL:           remote.WebsiteURL(bucket, region),
		Hosting:       true,
		IndexDocument: "index.html",
	}, nil
}

func (f *FakeStore) begin(op, bucket, key string) error {
	f.mu.Lock()
	f.calls = append(f.calls, StoreCall{Op: op, Bucket: bucket, Key: key})

	if n, ok := f.failures[key]; ok && n != 0 {
		if n > 0 {
			f.failures[key] = n - 1
		}
		f.mu.Unlock()
		return ErrInjected
	}
	if _, ok := f.buckets[bucket]; !ok {
		f.mu.Unlock()
		return errors.ErrBucketNotFound
	}

	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	delay := f.Delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return nil
}

func (f *FakeStore) end() {
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
}

func newFakeObject(body []byte) *FakeObject {
	return &FakeObject{
		Body:         append([]byte(nil), body...),
		ETag:         fmt.Sprintf("%x", md5.Sum(body)),
		LastModified: time.Now(),
	}
}

// Verify that FakeStore implements remote.Store
var _ remote.Store = (*FakeStore)(nil)
