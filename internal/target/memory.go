package target

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	etag        string
}

// MemoryTarget keeps a site in process memory. It backs the "memory" store
// type used for dry runs and tests.
type MemoryTarget struct {
	name string

	mu      sync.RWMutex
	objects map[string]memoryObject
	gen     int
	deletes int
}

// NewMemoryTarget returns an empty MemoryTarget.
func NewMemoryTarget(name string) *MemoryTarget {
	return &MemoryTarget{name: name, objects: map[string]memoryObject{}}
}

func (m *MemoryTarget) Name() string {
	return m.name
}

func (m *MemoryTarget) Put(_ context.Context, key string, body io.Reader, opts PutOptions) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("memory put %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.objects[key] = memoryObject{
		data:        data,
		contentType: opts.ContentType,
		metadata:    maps.Clone(opts.Metadata),
		etag:        strconv.Quote(strconv.Itoa(m.gen)),
	}
	return nil
}

func (m *MemoryTarget) Get(_ context.Context, key string) (io.ReadCloser, ObjectMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ObjectMeta{}, ErrNotFound
	}
	meta := ObjectMeta{ETag: obj.etag, Size: int64(len(obj.data)), ContentType: obj.contentType}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), meta, nil
}

func (m *MemoryTarget) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.objects, key)
	return nil
}

// List returns the objects under prefix sorted by key.
func (m *MemoryTarget) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []ObjectInfo
	for _, k := range m.sortedKeys() {
		if obj := m.objects[k]; strings.HasPrefix(k, prefix) {
			objects = append(objects, ObjectInfo{Key: k, Size: int64(len(obj.data)), ETag: obj.etag})
		}
	}
	return objects, nil
}

// Keys returns every stored key in sorted order.
func (m *MemoryTarget) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedKeys()
}

// DeleteCalls returns how many Delete requests the target has served.
func (m *MemoryTarget) DeleteCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deletes
}

func (m *MemoryTarget) sortedKeys() []string {
	keys := lo.Keys(m.objects)
	slices.Sort(keys)
	return keys
}

// Named memory targets survive across NewTarget calls in one process, so a
// plan and the publish that follows see the same content.
var memoryTargets = struct {
	sync.Mutex
	byName map[string]*MemoryTarget
}{byName: map[string]*MemoryTarget{}}

// GetOrCreateMemoryTarget returns the process-wide MemoryTarget called name.
func GetOrCreateMemoryTarget(name string) *MemoryTarget {
	memoryTargets.Lock()
	defer memoryTargets.Unlock()
	t, ok := memoryTargets.byName[name]
	if !ok {
		t = NewMemoryTarget(name)
		memoryTargets.byName[name] = t
	}
	return t
}

// ResetMemoryTargets forgets every named MemoryTarget.
func ResetMemoryTargets() {
	memoryTargets.Lock()
	defer memoryTargets.Unlock()
	clear(memoryTargets.byName)
}
